// internal/service/coupon/coupon.go
package coupon

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"onecoupon-console/internal/client/couponapi"
	"onecoupon-console/internal/domain/coupon"
	xerrors "onecoupon-console/internal/pkg/errors"

	"go.uber.org/zap"
)

const maxNameLength = 255

// Backend is the part of the merchant-admin API used for templates.
type Backend interface {
	CreateTemplate(ctx context.Context, req *coupon.CreateTemplateRequest) (*couponapi.Result[json.RawMessage], error)
	PageTemplates(ctx context.Context, q coupon.QueryParams) (*couponapi.PageResult[coupon.Template], error)
	GetTemplate(ctx context.Context, id coupon.TemplateID) (*couponapi.Result[*coupon.Template], error)
	TerminateTemplate(ctx context.Context, id coupon.TemplateID) (*couponapi.Result[json.RawMessage], error)
	IncreaseStock(ctx context.Context, id coupon.TemplateID, amount int64) (*couponapi.Result[json.RawMessage], error)
}

type CouponService struct {
	backend  Backend
	location *time.Location
	logger   *zap.Logger
}

func NewCouponService(backend Backend, location *time.Location, logger *zap.Logger) *CouponService {
	if location == nil {
		location = time.Local
	}
	return &CouponService{
		backend:  backend,
		location: location,
		logger:   logger,
	}
}

// Page is one page of templates.
type Page struct {
	Items []coupon.Template
	Total int64
}

// ========== Creation ==========

// PrepareCreate validates the creation form. It returns xerrors.FieldErrors
// keyed by form field when anything is wrong.
func (s *CouponService) PrepareCreate(form coupon.CreateTemplateForm) (*coupon.CreateTemplateRequest, error) {
	fields := xerrors.FieldErrors{}
	req := &coupon.CreateTemplateRequest{}

	req.Name = strings.TrimSpace(form.Name)
	switch {
	case req.Name == "":
		fields.Add("name", "Enter a coupon name")
	case utf8.RuneCountInString(req.Name) > maxNameLength:
		fields.Add("name", fmt.Sprintf("Name must be at most %d characters", maxNameLength))
	}

	if v, ok := parseEnum(form.Source, int(coupon.SourceShop), int(coupon.SourcePlatform)); ok {
		req.Source = coupon.Source(v)
	} else {
		fields.Add("source", "Choose a coupon source")
	}
	if v, ok := parseEnum(form.Target, int(coupon.TargetSpecificGood), int(coupon.TargetStoreWide)); ok {
		req.Target = coupon.Target(v)
	} else {
		fields.Add("target", "Choose a coupon target")
	}
	if v, ok := parseEnum(form.Type, int(coupon.DiscountTypeFlat), int(coupon.DiscountTypePercentage)); ok {
		req.Type = coupon.DiscountType(v)
	} else {
		fields.Add("type", "Choose a discount type")
	}

	// goods only travels with specific-good templates
	if coupon.GoodsFieldVisible(form.Target) {
		if goods := strings.TrimSpace(form.Goods); goods != "" {
			req.Goods = &goods
		}
	}

	start, startErr := coupon.ParseFormTime(form.ValidStart, s.location)
	if startErr != nil {
		fields.Add("validStart", "Enter a valid start time")
	}
	end, endErr := coupon.ParseFormTime(form.ValidEnd, s.location)
	if endErr != nil {
		fields.Add("validEnd", "Enter a valid end time")
	}
	if startErr == nil && endErr == nil && !end.After(start) {
		fields.Add("validEnd", "End time must be after the start time")
	}
	req.ValidStart, req.ValidEnd = start, end

	if stock, err := strconv.ParseInt(strings.TrimSpace(form.Stock), 10, 64); err != nil || stock < 1 {
		fields.Add("stock", "Stock must be a whole number of at least 1")
	} else {
		req.Stock = stock
	}

	req.ReceiveRule = normalizeRule(form.ReceiveRule, "receiveRule", fields)
	req.ConsumeRule = normalizeRule(form.ConsumeRule, "consumeRule", fields)

	if err := fields.OrNil(); err != nil {
		return nil, err
	}
	return req, nil
}

// Create submits a validated template and returns the backend info text.
func (s *CouponService) Create(ctx context.Context, req *coupon.CreateTemplateRequest) (string, error) {
	res, err := s.backend.CreateTemplate(ctx, req)
	if err != nil {
		return "", err
	}
	if err := res.Err(); err != nil {
		s.logger.Info("coupon template rejected",
			zap.String("name", req.Name),
			zap.String("info", res.Info),
		)
		return "", err
	}

	s.logger.Info("coupon template created",
		zap.String("name", req.Name),
		zap.Int64("stock", req.Stock),
	)
	return res.Info, nil
}

// ========== Queries ==========

// PageTemplates runs a list query.
func (s *CouponService) PageTemplates(ctx context.Context, q coupon.QueryParams) (*Page, error) {
	res, err := s.backend.PageTemplates(ctx, q)
	if err != nil {
		return nil, err
	}
	if err := res.Err(); err != nil {
		return nil, err
	}
	return &Page{Items: res.Data, Total: res.Total}, nil
}

// GetTemplate always reads fresh detail from the backend.
func (s *CouponService) GetTemplate(ctx context.Context, id coupon.TemplateID) (*coupon.Template, error) {
	res, err := s.backend.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := res.Err(); err != nil {
		return nil, err
	}
	if res.Data == nil {
		return nil, xerrors.Wrap(xerrors.ErrNotFound, "coupon template "+id.String())
	}
	return res.Data, nil
}

// EnsureActive refuses templates that have already ended.
func (s *CouponService) EnsureActive(ctx context.Context, id coupon.TemplateID) (*coupon.Template, error) {
	tpl, err := s.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	if !tpl.IsActive() {
		return nil, xerrors.ErrTemplateEnded
	}
	return tpl, nil
}

// ========== Mutations ==========

// Terminate ends a template. The transition is one way.
func (s *CouponService) Terminate(ctx context.Context, id coupon.TemplateID) (string, error) {
	res, err := s.backend.TerminateTemplate(ctx, id)
	if err != nil {
		return "", err
	}
	if err := res.Err(); err != nil {
		return "", err
	}

	s.logger.Info("coupon template terminated", zap.String("template_id", id.String()))
	return res.Info, nil
}

// PrepareIncreaseStock validates the stock modal.
func (s *CouponService) PrepareIncreaseStock(form coupon.IncreaseStockForm) (coupon.TemplateID, int64, error) {
	fields := xerrors.FieldErrors{}

	id, err := coupon.ParseTemplateID(form.TemplateID)
	if err != nil {
		fields.Add("couponTemplateId", "Unknown coupon template")
	}
	amount, err := strconv.ParseInt(strings.TrimSpace(form.Amount), 10, 64)
	if err != nil || amount < 1 {
		fields.Add("stock", "Enter a whole number greater than 0")
	}

	if err := fields.OrNil(); err != nil {
		return "", 0, err
	}
	return id, amount, nil
}

// IncreaseStock adds amount to the template's stock.
func (s *CouponService) IncreaseStock(ctx context.Context, id coupon.TemplateID, amount int64) (string, error) {
	if amount < 1 {
		return "", xerrors.Wrap(xerrors.ErrInvalidInput, "stock increase must be positive")
	}

	res, err := s.backend.IncreaseStock(ctx, id, amount)
	if err != nil {
		return "", err
	}
	if err := res.Err(); err != nil {
		return "", err
	}

	s.logger.Info("coupon template stock increased",
		zap.String("template_id", id.String()),
		zap.Int64("amount", amount),
	)
	return res.Info, nil
}

// --- Helper functions ---

func parseEnum(raw string, min, max int) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v < min || v > max {
		return 0, false
	}
	return v, true
}

func normalizeRule(raw, field string, fields xerrors.FieldErrors) string {
	rule := strings.TrimSpace(raw)
	if rule == "" {
		return "{}"
	}
	if !json.Valid([]byte(rule)) {
		fields.Add(field, "Rule must be valid JSON")
	}
	return rule
}
