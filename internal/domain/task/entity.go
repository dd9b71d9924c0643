// internal/domain/task/entity.go
package task

import (
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"onecoupon-console/internal/domain/coupon"
)

type NotifyType int

const (
	NotifyInApp NotifyType = 0
	NotifyPopup NotifyType = 1
	NotifyEmail NotifyType = 2
	NotifySMS   NotifyType = 3
)

// NotifyOptions lists the channels offered by the distribute form.
var NotifyOptions = []coupon.Option{
	{Value: "0", Label: "In-app message"},
	{Value: "1", Label: "Popup"},
	{Value: "2", Label: "Email"},
	{Value: "3", Label: "SMS"},
}

type SendType int

const (
	SendImmediate SendType = 0
	SendScheduled SendType = 1
)

var SendTypeOptions = []coupon.Option{
	{Value: "0", Label: "Send immediately"},
	{Value: "1", Label: "Scheduled"},
}

// TemplateFileName is the fixed name used when saving the recipient template.
const TemplateFileName = "优惠券推送模板.xlsx"

// DefaultTemplateRows pre-fills the row count prompt.
const DefaultTemplateRows = 100

// Upload is a recipient spreadsheet held in memory.
type Upload struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Content     []byte `json:"content"`
}

// CreateTaskRequest is a validated distribution task.
type CreateTaskRequest struct {
	TaskName         string
	NotifyTypes      []NotifyType
	CouponTemplateID coupon.TemplateID
	SendType         SendType
	SendTime         *time.Time
	File             Upload
}

// NotifyTypeParam joins the channels into the comma separated codes the
// backend expects, in ascending order without duplicates.
func (r *CreateTaskRequest) NotifyTypeParam() string {
	seen := make(map[NotifyType]bool, len(r.NotifyTypes))
	codes := make([]int, 0, len(r.NotifyTypes))
	for _, n := range r.NotifyTypes {
		if seen[n] {
			continue
		}
		seen[n] = true
		codes = append(codes, int(n))
	}
	sort.Ints(codes)
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, ",")
}

// File is a binary payload returned by the backend.
type File struct {
	ContentType   string
	ContentLength int64
	Body          io.ReadCloser
}
