package task

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"onecoupon-console/internal/client/couponapi"
	"onecoupon-console/internal/domain/task"
	xerrors "onecoupon-console/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBackend struct {
	rowNum int
	req    *task.CreateTaskRequest
	calls  int
}

func (f *fakeBackend) DownloadTemplateFile(_ context.Context, rowNum int) (*task.File, error) {
	f.calls++
	f.rowNum = rowNum
	return &task.File{ContentType: "application/octet-stream", Body: io.NopCloser(strings.NewReader("xlsx"))}, nil
}

func (f *fakeBackend) CreateTask(_ context.Context, req *task.CreateTaskRequest) (*couponapi.Result[json.RawMessage], error) {
	f.calls++
	f.req = req
	return &couponapi.Result[json.RawMessage]{Code: "0", Info: "accepted"}, nil
}

var fixedNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func newTestService(b *fakeBackend) *TaskService {
	s := NewTaskService(b, time.UTC, 1024, zap.NewNop())
	s.now = func() time.Time { return fixedNow }
	return s
}

func validForm() task.DistributeForm {
	return task.DistributeForm{
		TemplateID:  "1810966224287035392",
		TaskName:    "push",
		NotifyTypes: []string{"3", "0"},
		SendType:    "0",
	}
}

func validUpload() *task.Upload {
	return &task.Upload{Filename: "users.xlsx", Content: []byte("rows")}
}

func TestPrepareDistribute(t *testing.T) {
	testCases := []struct {
		name      string
		mutate    func(f *task.DistributeForm)
		upload    *task.Upload
		wantField string
	}{
		{name: "immediate", mutate: func(f *task.DistributeForm) {}, upload: validUpload()},
		{
			name: "scheduled in the future",
			mutate: func(f *task.DistributeForm) {
				f.SendType = "1"
				f.SendTime = "2026-10-16T12:30"
			},
			upload: validUpload(),
		},
		{
			name: "scheduled in the past",
			mutate: func(f *task.DistributeForm) {
				f.SendType = "1"
				f.SendTime = "2026-10-16T11:59:59"
			},
			upload:    validUpload(),
			wantField: "sendTime",
		},
		{
			name: "scheduled exactly now",
			mutate: func(f *task.DistributeForm) {
				f.SendType = "1"
				f.SendTime = "2026-10-16T12:00:00"
			},
			upload:    validUpload(),
			wantField: "sendTime",
		},
		{
			name:      "scheduled without time",
			mutate:    func(f *task.DistributeForm) { f.SendType = "1" },
			upload:    validUpload(),
			wantField: "sendTime",
		},
		{
			name:      "no channel",
			mutate:    func(f *task.DistributeForm) { f.NotifyTypes = nil },
			upload:    validUpload(),
			wantField: "notifyType",
		},
		{
			name:      "blank name",
			mutate:    func(f *task.DistributeForm) { f.TaskName = " " },
			upload:    validUpload(),
			wantField: "taskName",
		},
		{
			name:      "no file",
			mutate:    func(f *task.DistributeForm) {},
			wantField: "file",
		},
		{
			name:      "wrong extension",
			mutate:    func(f *task.DistributeForm) {},
			upload:    &task.Upload{Filename: "users.csv", Content: []byte("rows")},
			wantField: "file",
		},
		{
			name:      "too large",
			mutate:    func(f *task.DistributeForm) {},
			upload:    &task.Upload{Filename: "users.XLS", Content: make([]byte, 2048)},
			wantField: "file",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := &fakeBackend{}
			form := validForm()
			tc.mutate(&form)

			req, err := newTestService(b).PrepareDistribute(form, tc.upload)
			assert.Zero(t, b.calls)
			if tc.wantField != "" {
				fields, ok := xerrors.AsFieldErrors(err)
				require.True(t, ok, "expected field errors, got %v", err)
				assert.Contains(t, fields, tc.wantField)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "0,3", req.NotifyTypeParam())
			if form.SendType == "0" {
				assert.Nil(t, req.SendTime)
			} else {
				require.NotNil(t, req.SendTime)
				assert.True(t, req.SendTime.After(fixedNow))
			}
		})
	}
}

func TestDistribute(t *testing.T) {
	b := &fakeBackend{}
	svc := newTestService(b)
	req, err := svc.PrepareDistribute(validForm(), validUpload())
	require.NoError(t, err)

	info, err := svc.Distribute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "accepted", info)
	assert.Same(t, req, b.req)
}

func TestParseRowNum(t *testing.T) {
	for _, raw := range []string{"0", "-1", "", "abc", "1.5"} {
		_, err := ParseRowNum(raw)
		fields, ok := xerrors.AsFieldErrors(err)
		require.True(t, ok, raw)
		assert.Contains(t, fields, "rowNum")
	}

	n, err := ParseRowNum(" 1 ")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestTemplateFile(t *testing.T) {
	b := &fakeBackend{}
	svc := newTestService(b)

	_, err := svc.TemplateFile(context.Background(), 0)
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
	assert.Zero(t, b.calls)

	f, err := svc.TemplateFile(context.Background(), 100)
	require.NoError(t, err)
	defer f.Body.Close()
	assert.Equal(t, 100, b.rowNum)
}
