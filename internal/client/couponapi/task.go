package couponapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"onecoupon-console/internal/domain/coupon"
	"onecoupon-console/internal/domain/task"
)

const (
	pathDownloadTemplateFile = "/coupon-task/download-template-file"
	pathCreateTask           = "/coupon-task/create"
)

const spreadsheetContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// DownloadTemplateFile fetches a recipient spreadsheet with rowNum rows. The
// caller must close the returned body.
func (c *Client) DownloadTemplateFile(ctx context.Context, rowNum int) (*task.File, error) {
	resp, err := c.send(ctx, request{
		op:     "download_template_file",
		method: http.MethodGet,
		path:   pathDownloadTemplateFile,
		query:  url.Values{"rowNum": {strconv.Itoa(rowNum)}},
	})
	if err != nil {
		return nil, err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = spreadsheetContentType
	}
	return &task.File{
		ContentType:   contentType,
		ContentLength: resp.ContentLength,
		Body:          resp.Body,
	}, nil
}

// CreateTask submits a distribution task as a multipart form. sendTime is
// left out entirely for immediate tasks.
func (c *Client) CreateTask(ctx context.Context, req *task.CreateTaskRequest) (*Result[json.RawMessage], error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"taskName", req.TaskName},
		{"notifyType", req.NotifyTypeParam()},
		{"couponTemplateId", req.CouponTemplateID.String()},
		{"sendType", strconv.Itoa(int(req.SendType))},
	}
	if req.SendTime != nil {
		fields = append(fields, [2]string{"sendTime", req.SendTime.In(c.location).Format(coupon.WireTimeLayout)})
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, fmt.Errorf("create task: write field %s: %w", f[0], err)
		}
	}

	contentType := req.File.ContentType
	if contentType == "" {
		contentType = spreadsheetContentType
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(req.File.Filename)))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("create task: create file part: %w", err)
	}
	if _, err := part.Write(req.File.Content); err != nil {
		return nil, fmt.Errorf("create task: write file part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("create task: close multipart: %w", err)
	}

	res := &Result[json.RawMessage]{op: "create_task"}
	err = c.sendJSON(ctx, request{
		op:          res.op,
		method:      http.MethodPost,
		path:        pathCreateTask,
		body:        &buf,
		contentType: mw.FormDataContentType(),
	}, res)
	if err != nil {
		return nil, err
	}
	return res, nil
}
