package couponapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"onecoupon-console/internal/domain/coupon"
	"onecoupon-console/internal/domain/task"
	"onecoupon-console/internal/pkg/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// beyond 2^53, so a float64 round trip would turn it into ...992
const bigID = "9007199254740993"

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL+"/api/merchant-admin", WithMetrics(metrics.New()), WithLocation(time.UTC))
	require.NoError(t, err)
	return c
}

func TestClient_PageTemplates_OmitsAbsentFilters(t *testing.T) {
	target := coupon.TargetSpecificGood
	storeWide := coupon.TargetStoreWide
	kind := coupon.DiscountTypePercentage

	testCases := []struct {
		name      string
		params    coupon.QueryParams
		wantQuery map[string]string
	}{
		{
			name:      "default query",
			params:    coupon.DefaultQuery(),
			wantQuery: map[string]string{"pageNum": "1", "pageSize": "10"},
		},
		{
			name:   "name only",
			params: coupon.QueryParams{PageNum: 2, PageSize: 20, Name: "spring"},
			wantQuery: map[string]string{
				"pageNum": "2", "pageSize": "20", "name": "spring",
			},
		},
		{
			name:   "specific good with goods",
			params: coupon.QueryParams{PageNum: 1, PageSize: 10, Target: &target, Goods: "SKU-1", Type: &kind},
			wantQuery: map[string]string{
				"pageNum": "1", "pageSize": "10", "target": "0", "goods": "SKU-1", "type": "2",
			},
		},
		{
			name:   "goods dropped for store-wide",
			params: coupon.QueryParams{PageNum: 1, PageSize: 10, Target: &storeWide, Goods: "SKU-1"},
			wantQuery: map[string]string{
				"pageNum": "1", "pageSize": "10", "target": "1",
			},
		},
		{
			name:      "goods dropped without target",
			params:    coupon.QueryParams{PageNum: 1, PageSize: 10, Goods: "SKU-1"},
			wantQuery: map[string]string{"pageNum": "1", "pageSize": "10"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var got map[string]string
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/api/merchant-admin/coupon-template/page", r.URL.Path)
				got = map[string]string{}
				for k, v := range r.URL.Query() {
					got[k] = v[0]
				}
				_, _ = io.WriteString(w, `{"code":"0","info":"ok","data":[],"total":0}`)
			})

			res, err := c.PageTemplates(context.Background(), tc.params)
			require.NoError(t, err)
			assert.True(t, res.Success())
			assert.Equal(t, tc.wantQuery, got)
		})
	}
}

func TestClient_PageTemplates_DecodesLargeIDs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"code":"0","info":"ok","total":2,"data":[
			{"couponTemplateId":`+bigID+`,"name":"a","target":0,"goods":null,"status":0},
			{"couponTemplateId":"1810966224287035392","name":"b","target":1,"status":1}
		]}`)
	})

	res, err := c.PageTemplates(context.Background(), coupon.DefaultQuery())
	require.NoError(t, err)
	require.Len(t, res.Data, 2)
	assert.Equal(t, coupon.TemplateID(bigID), res.Data[0].ID)
	assert.Equal(t, coupon.TemplateID("1810966224287035392"), res.Data[1].ID)
	assert.Equal(t, int64(2), res.Total)
}

func TestClient_TemplateIDRoundTrip(t *testing.T) {
	var seen []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.URL.Path+"?"+r.URL.RawQuery)
		if r.URL.Path == "/api/merchant-admin/coupon-template/query" {
			_, _ = io.WriteString(w, `{"code":"0","info":"ok","data":{"couponTemplateId":`+bigID+`,"name":"a"}}`)
			return
		}
		_, _ = io.WriteString(w, `{"code":"0","info":"ok","data":null}`)
	})
	ctx := context.Background()

	detail, err := c.GetTemplate(ctx, bigID)
	require.NoError(t, err)
	require.NotNil(t, detail.Data)
	assert.Equal(t, coupon.TemplateID(bigID), detail.Data.ID)

	_, err = c.TerminateTemplate(ctx, detail.Data.ID)
	require.NoError(t, err)
	_, err = c.IncreaseStock(ctx, detail.Data.ID, 5)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/api/merchant-admin/coupon-template/query?couponTemplateId=" + bigID,
		"/api/merchant-admin/coupon-template/terminate?couponTemplateId=" + bigID,
		"/api/merchant-admin/coupon-template/increase-stock?couponTemplateId=" + bigID + "&stock=5",
	}, seen)
}

func TestClient_CreateTemplate_WireShape(t *testing.T) {
	var body map[string]interface{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = io.WriteString(w, `{"code":"0","info":"created","data":null}`)
	})

	start := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	res, err := c.CreateTemplate(context.Background(), &coupon.CreateTemplateRequest{
		Name:        "autumn",
		Source:      coupon.SourcePlatform,
		Target:      coupon.TargetSpecificGood,
		Type:        coupon.DiscountTypeThreshold,
		ValidStart:  start,
		ValidEnd:    start.Add(time.Minute),
		Stock:       91,
		ReceiveRule: "{}",
		ConsumeRule: `{"limit":1}`,
	})
	require.NoError(t, err)
	assert.Equal(t, "created", res.Info)

	assert.Equal(t, map[string]interface{}{
		"name":           "autumn",
		"source":         float64(1),
		"target":         float64(0),
		"goods":          nil,
		"type":           float64(1),
		"validStartTime": "2026-10-16 09:30:00",
		"validEndTime":   "2026-10-16 09:31:00",
		"stock":          float64(91),
		"receiveRule":    "{}",
		"consumeRule":    `{"limit":1}`,
	}, body)
}

func TestClient_TransportError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.PageTemplates(context.Background(), coupon.DefaultQuery())
	require.Error(t, err)
	assert.True(t, IsTransport(err))

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusBadGateway, te.StatusCode)
}

func TestClient_ApplicationError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"code":"A000001","info":"stock overflow","data":null}`)
	})

	res, err := c.IncreaseStock(context.Background(), "1", 1)
	require.NoError(t, err)
	assert.False(t, res.Success())

	ae, ok := AsAPIError(res.Err())
	require.True(t, ok)
	assert.Equal(t, "stock overflow", ae.Info)
	assert.Equal(t, "A000001", ae.Code)
}

func TestClient_NumericEnvelopeCode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"code":0,"info":"ok","data":null}`)
	})

	res, err := c.TerminateTemplate(context.Background(), "1")
	require.NoError(t, err)
	assert.True(t, res.Success())
}

func TestClient_DownloadTemplateFile(t *testing.T) {
	payload := []byte("PK\x03\x04fake-xlsx")
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/merchant-admin/coupon-task/download-template-file", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("rowNum"))
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(payload)
	})

	f, err := c.DownloadTemplateFile(context.Background(), 1)
	require.NoError(t, err)
	defer f.Body.Close()

	got, err := io.ReadAll(f.Body)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.Equal(t, "application/octet-stream", f.ContentType)
}

func TestClient_CreateTask_Multipart(t *testing.T) {
	sendAt := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)

	testCases := []struct {
		name     string
		sendType task.SendType
		sendTime *time.Time
		want     map[string]string
	}{
		{
			name:     "immediate omits sendTime",
			sendType: task.SendImmediate,
			want: map[string]string{
				"taskName": "push", "notifyType": "0,3", "couponTemplateId": bigID, "sendType": "0",
			},
		},
		{
			name:     "scheduled carries sendTime",
			sendType: task.SendScheduled,
			sendTime: &sendAt,
			want: map[string]string{
				"taskName": "push", "notifyType": "0,3", "couponTemplateId": bigID, "sendType": "1",
				"sendTime": "2030-01-02 03:04:05",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var fields map[string]string
			var fileName string
			var fileBody []byte
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				require.NoError(t, r.ParseMultipartForm(1<<20))
				fields = map[string]string{}
				for k, v := range r.MultipartForm.Value {
					fields[k] = v[0]
				}
				f, fh, err := r.FormFile("file")
				require.NoError(t, err)
				defer f.Close()
				fileName = fh.Filename
				fileBody, _ = io.ReadAll(f)
				_, _ = io.WriteString(w, `{"code":"0","info":"task created","data":null}`)
			})

			res, err := c.CreateTask(context.Background(), &task.CreateTaskRequest{
				TaskName:         "push",
				NotifyTypes:      []task.NotifyType{task.NotifySMS, task.NotifyInApp, task.NotifySMS},
				CouponTemplateID: bigID,
				SendType:         tc.sendType,
				SendTime:         tc.sendTime,
				File:             task.Upload{Filename: "users.xlsx", Content: []byte("rows")},
			})
			require.NoError(t, err)
			assert.True(t, res.Success())
			assert.Equal(t, tc.want, fields)
			assert.Equal(t, "users.xlsx", fileName)
			assert.Equal(t, []byte("rows"), fileBody)
		})
	}
}

func TestClient_CanceledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"code":"0","info":"ok","data":[],"total":0}`)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.PageTemplates(ctx, coupon.DefaultQuery())
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewClient_RejectsBadBaseURL(t *testing.T) {
	_, err := NewClient("not a url")
	assert.Error(t, err)

	c, err := NewClient("")
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.baseURL)
}

func TestClient_CallSpanIsChildOfRequestSpan(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	var traceparent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceparent = r.Header.Get("traceparent")
		_, _ = io.WriteString(w, `{"code":"0","info":"ok","total":0,"data":[]}`)
	}))
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, WithTracerProvider(tp))
	require.NoError(t, err)

	ctx, parent := tp.Tracer("test").Start(context.Background(), "GET /list")
	_, err = c.PageTemplates(ctx, coupon.DefaultQuery())
	require.NoError(t, err)
	parent.End()

	spans := sr.Ended()
	require.Len(t, spans, 2)
	call := spans[0]
	assert.Equal(t, "couponapi.page_templates", call.Name())
	assert.Equal(t, trace.SpanKindClient, call.SpanKind())
	assert.Equal(t, parent.SpanContext().SpanID(), call.Parent().SpanID())
	assert.Equal(t, "00-"+call.SpanContext().TraceID().String()+"-"+call.SpanContext().SpanID().String()+"-01", traceparent)
}

func TestClient_GetTemplate_ReadsTimesInConfiguredZone(t *testing.T) {
	shanghai := time.FixedZone("CST", 8*60*60)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"code":"0","info":"ok","data":{"couponTemplateId":"7","validStartTime":"2030-01-01 00:00:00","validEndTime":1893513600000}}`)
	}))
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, WithLocation(shanghai))
	require.NoError(t, err)

	res, err := c.GetTemplate(context.Background(), "7")
	require.NoError(t, err)
	require.NotNil(t, res.Data)
	assert.True(t, time.Date(2030, 1, 1, 0, 0, 0, 0, shanghai).Equal(res.Data.ValidStartTime.Time))
	assert.Equal(t, shanghai, res.Data.ValidEndTime.Location())
	assert.Equal(t, "2030-01-02 00:00:00", res.Data.ValidEndTime.Format(coupon.WireTimeLayout))
}
