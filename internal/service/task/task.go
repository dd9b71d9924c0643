// internal/service/task/task.go
package task

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"onecoupon-console/internal/client/couponapi"
	"onecoupon-console/internal/domain/coupon"
	"onecoupon-console/internal/domain/task"
	xerrors "onecoupon-console/internal/pkg/errors"

	"go.uber.org/zap"
)

const maxTaskNameLength = 128

// allowedExtensions are the spreadsheet formats the backend parses.
var allowedExtensions = map[string]bool{
	".xlsx": true,
	".xls":  true,
}

// Backend is the part of the merchant-admin API used for distribution.
type Backend interface {
	DownloadTemplateFile(ctx context.Context, rowNum int) (*task.File, error)
	CreateTask(ctx context.Context, req *task.CreateTaskRequest) (*couponapi.Result[json.RawMessage], error)
}

type TaskService struct {
	backend        Backend
	location       *time.Location
	maxUploadBytes int64
	logger         *zap.Logger
	now            func() time.Time
}

func NewTaskService(backend Backend, location *time.Location, maxUploadBytes int64, logger *zap.Logger) *TaskService {
	if location == nil {
		location = time.Local
	}
	return &TaskService{
		backend:        backend,
		location:       location,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
		now:            time.Now,
	}
}

// MaxUploadBytes is the largest recipient file accepted.
func (s *TaskService) MaxUploadBytes() int64 {
	return s.maxUploadBytes
}

// PrepareDistribute validates the distribute modal. file is nil when no
// file was chosen.
func (s *TaskService) PrepareDistribute(form task.DistributeForm, file *task.Upload) (*task.CreateTaskRequest, error) {
	fields := xerrors.FieldErrors{}
	req := &task.CreateTaskRequest{}

	id, err := coupon.ParseTemplateID(form.TemplateID)
	if err != nil {
		fields.Add("couponTemplateId", "Unknown coupon template")
	}
	req.CouponTemplateID = id

	req.TaskName = strings.TrimSpace(form.TaskName)
	switch {
	case req.TaskName == "":
		fields.Add("taskName", "Enter a task name")
	case len([]rune(req.TaskName)) > maxTaskNameLength:
		fields.Add("taskName", fmt.Sprintf("Task name must be at most %d characters", maxTaskNameLength))
	}

	for _, raw := range form.NotifyTypes {
		v, err := strconv.Atoi(raw)
		if err != nil || v < int(task.NotifyInApp) || v > int(task.NotifySMS) {
			fields.Add("notifyType", "Unknown notification channel")
			continue
		}
		req.NotifyTypes = append(req.NotifyTypes, task.NotifyType(v))
	}
	if len(form.NotifyTypes) == 0 {
		fields.Add("notifyType", "Choose at least one notification channel")
	}

	switch form.SendType {
	case "0":
		req.SendType = task.SendImmediate
	case "1":
		req.SendType = task.SendScheduled
		s.prepareSendTime(form.SendTime, req, fields)
	default:
		fields.Add("sendType", "Choose when to send")
	}

	s.checkUpload(file, fields)
	if file != nil {
		req.File = *file
	}

	if err := fields.OrNil(); err != nil {
		return nil, err
	}
	return req, nil
}

// Distribute submits the task. It is fire-and-forget: only acceptance is
// reported.
func (s *TaskService) Distribute(ctx context.Context, req *task.CreateTaskRequest) (string, error) {
	res, err := s.backend.CreateTask(ctx, req)
	if err != nil {
		return "", err
	}
	if err := res.Err(); err != nil {
		return "", err
	}

	s.logger.Info("distribution task created",
		zap.String("template_id", req.CouponTemplateID.String()),
		zap.String("task_name", req.TaskName),
		zap.String("notify_type", req.NotifyTypeParam()),
		zap.Int("send_type", int(req.SendType)),
		zap.Int("file_bytes", len(req.File.Content)),
	)
	return res.Info, nil
}

// ParseRowNum validates the requested row count of the recipient template.
func ParseRowNum(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 0, xerrors.FieldErrors{"rowNum": "Row count must be a whole number of at least 1"}
	}
	return n, nil
}

// TemplateFile downloads a recipient template. The caller closes the body.
func (s *TaskService) TemplateFile(ctx context.Context, rowNum int) (*task.File, error) {
	if rowNum < 1 {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "row count must be at least 1")
	}
	f, err := s.backend.DownloadTemplateFile(ctx, rowNum)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("recipient template downloaded", zap.Int("row_num", rowNum))
	return f, nil
}

// --- Helper functions ---

func (s *TaskService) prepareSendTime(raw string, req *task.CreateTaskRequest, fields xerrors.FieldErrors) {
	if strings.TrimSpace(raw) == "" {
		fields.Add("sendTime", "Choose a send time")
		return
	}
	at, err := coupon.ParseFormTime(raw, s.location)
	if err != nil {
		fields.Add("sendTime", "Enter a valid send time")
		return
	}
	if !at.After(s.now()) {
		fields.Add("sendTime", "Send time must be in the future")
		return
	}
	req.SendTime = &at
}

func (s *TaskService) checkUpload(file *task.Upload, fields xerrors.FieldErrors) {
	switch {
	case file == nil || file.Filename == "":
		fields.Add("file", "Choose a recipient file")
	case !allowedExtensions[strings.ToLower(filepath.Ext(file.Filename))]:
		fields.Add("file", xerrors.ErrUnsupportedFile.Error()+": use .xlsx or .xls")
	case len(file.Content) == 0:
		fields.Add("file", "The file is empty")
	case s.maxUploadBytes > 0 && int64(len(file.Content)) > s.maxUploadBytes:
		fields.Add("file", fmt.Sprintf("%s: the limit is %d bytes", xerrors.ErrUploadTooLarge.Error(), s.maxUploadBytes))
	}
}
