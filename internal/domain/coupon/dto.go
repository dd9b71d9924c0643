// internal/domain/coupon/dto.go
package coupon

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultPageNum  = 1
	DefaultPageSize = 10
)

// PageSizes lists the page sizes offered by the list view.
var PageSizes = []int{10, 20, 50, 100}

// FormTimeLayout matches the value of an HTML datetime-local input with seconds.
const FormTimeLayout = "2006-01-02T15:04:05"

// QueryParams drives the page query. Optional filters are omitted from the
// encoded form when absent.
type QueryParams struct {
	PageNum  int
	PageSize int
	Name     string
	Target   *Target
	Goods    string
	Type     *DiscountType
}

// DefaultQuery is the first query issued by the list view.
func DefaultQuery() QueryParams {
	return QueryParams{PageNum: DefaultPageNum, PageSize: DefaultPageSize}
}

// Values encodes the parameters. goods is only carried for specific-good
// queries.
func (q QueryParams) Values() url.Values {
	v := url.Values{}
	v.Set("pageNum", strconv.Itoa(q.PageNum))
	v.Set("pageSize", strconv.Itoa(q.PageSize))
	if q.Name != "" {
		v.Set("name", q.Name)
	}
	if q.Target != nil {
		v.Set("target", strconv.Itoa(int(*q.Target)))
		if *q.Target == TargetSpecificGood && q.Goods != "" {
			v.Set("goods", q.Goods)
		}
	}
	if q.Type != nil {
		v.Set("type", strconv.Itoa(int(*q.Type)))
	}
	return v
}

// HasFilters reports whether any optional filter is set.
func (q QueryParams) HasFilters() bool {
	return q.Name != "" || q.Target != nil || q.Type != nil
}

// ListFilterForm is bound from the list page query string. Fields stay
// strings so malformed input degrades to "no filter" instead of an error page.
type ListFilterForm struct {
	PageNum  string `form:"pageNum"`
	PageSize string `form:"pageSize"`
	Name     string `form:"name"`
	Target   string `form:"target"`
	Goods    string `form:"goods"`
	Type     string `form:"type"`
}

// ToQueryParams normalises the form into a valid query.
func (f ListFilterForm) ToQueryParams() QueryParams {
	q := DefaultQuery()
	if n, err := strconv.Atoi(f.PageNum); err == nil && n >= 1 {
		q.PageNum = n
	}
	if n, err := strconv.Atoi(f.PageSize); err == nil {
		for _, size := range PageSizes {
			if n == size {
				q.PageSize = n
			}
		}
	}
	q.Name = strings.TrimSpace(f.Name)
	if n, err := strconv.Atoi(f.Target); err == nil && (Target(n) == TargetSpecificGood || Target(n) == TargetStoreWide) {
		t := Target(n)
		q.Target = &t
		if t == TargetSpecificGood {
			q.Goods = strings.TrimSpace(f.Goods)
		}
	}
	if n, err := strconv.Atoi(f.Type); err == nil && n >= int(DiscountTypeFlat) && n <= int(DiscountTypePercentage) {
		d := DiscountType(n)
		q.Type = &d
	}
	return q
}

// CreateTemplateForm is the raw creation form as typed by the operator.
type CreateTemplateForm struct {
	Name        string `form:"name" binding:"required,max=255"`
	Source      string `form:"source" binding:"required,oneof=0 1"`
	Target      string `form:"target" binding:"required,oneof=0 1"`
	Goods       string `form:"goods" binding:"max=64"`
	Type        string `form:"type" binding:"required,oneof=0 1 2"`
	ValidStart  string `form:"validStart" binding:"required"`
	ValidEnd    string `form:"validEnd" binding:"required"`
	Stock       string `form:"stock" binding:"required"`
	ReceiveRule string `form:"receiveRule"`
	ConsumeRule string `form:"consumeRule"`
}

// DefaultCreateForm holds the initial values of an empty creation form.
func DefaultCreateForm(now time.Time) CreateTemplateForm {
	return CreateTemplateForm{
		Source:      "0",
		Target:      "1",
		Type:        "1",
		ValidStart:  now.Format(FormTimeLayout),
		ValidEnd:    now.Add(48 * time.Hour).Format(FormTimeLayout),
		Stock:       "1",
		ReceiveRule: "{}",
		ConsumeRule: "{}",
	}
}

// PresetCreateForm fills every field with sample values. The one minute
// validity window keeps manual test templates short-lived.
func PresetCreateForm(now time.Time) CreateTemplateForm {
	return CreateTemplateForm{
		Name:        "Sample coupon",
		Source:      "0",
		Target:      "1",
		Type:        "1",
		ValidStart:  now.Format(FormTimeLayout),
		ValidEnd:    now.Add(time.Minute).Format(FormTimeLayout),
		Stock:       "91",
		ReceiveRule: "{}",
		ConsumeRule: "{}",
	}
}

// GoodsVisible is used by the creation template.
func (f CreateTemplateForm) GoodsVisible() bool {
	return GoodsFieldVisible(f.Target)
}

// CreateTemplateRequest is a validated creation request.
type CreateTemplateRequest struct {
	Name        string
	Source      Source
	Target      Target
	Goods       *string
	Type        DiscountType
	ValidStart  time.Time
	ValidEnd    time.Time
	Stock       int64
	ReceiveRule string
	ConsumeRule string
}

// IncreaseStockForm is posted by the stock modal.
type IncreaseStockForm struct {
	TemplateID string `form:"couponTemplateId" binding:"required"`
	Amount     string `form:"stock"`
	ReturnTo   string `form:"returnTo"`
}

// TerminateForm is posted by the terminate confirmation.
type TerminateForm struct {
	TemplateID string `form:"couponTemplateId" binding:"required"`
	ReturnTo   string `form:"returnTo"`
}

// ParseFormTime accepts datetime-local values with or without seconds.
func ParseFormTime(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	t, err := time.ParseInLocation(FormTimeLayout, raw, loc)
	if err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02T15:04", raw, loc)
}
