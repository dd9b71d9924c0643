// internal/handlers/coupon/modal.go
package coupon

import (
	"context"
	"strconv"

	"onecoupon-console/internal/domain/coupon"
	"onecoupon-console/internal/domain/task"
	xerrors "onecoupon-console/internal/pkg/errors"

	"go.uber.org/zap"
)

const (
	modalDetail     = "detail"
	modalTerminate  = "terminate"
	modalStock      = "stock"
	modalDistribute = "distribute"
)

// modalRequest asks renderList to open a modal, optionally with the values
// and errors of a rejected submission.
type modalRequest struct {
	Kind       string
	RawID      string
	Stock      *coupon.IncreaseStockForm
	Distribute *task.DistributeForm
	RowNum     string
	Errors     xerrors.FieldErrors
}

type modalView struct {
	Kind           string
	Template       *coupon.Template
	CloseURL       string
	ReturnTo       string
	StockForm      coupon.IncreaseStockForm
	DistributeForm task.DistributeForm
	StashedFile    string
	RowNum         string
	Errors         xerrors.FieldErrors
}

// loadModal reads fresh detail for the modal. Only the detail modal may be
// opened for an ended template.
func (h *CouponHandler) loadModal(ctx context.Context, jti string, req *modalRequest, self string) (*modalView, error) {
	switch req.Kind {
	case modalDetail, modalTerminate, modalStock, modalDistribute:
	default:
		return nil, nil
	}

	id, err := coupon.ParseTemplateID(req.RawID)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.ErrNotFound, err.Error())
	}
	tpl, err := h.coupons.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Kind != modalDetail && !tpl.IsActive() {
		return nil, xerrors.ErrTemplateEnded
	}

	view := &modalView{
		Kind:     req.Kind,
		Template: tpl,
		CloseURL: self,
		ReturnTo: self,
		Errors:   req.Errors,
		RowNum:   req.RowNum,
	}
	switch req.Kind {
	case modalStock:
		view.StockForm = coupon.IncreaseStockForm{TemplateID: id.String()}
		if req.Stock != nil {
			view.StockForm.Amount = req.Stock.Amount
		}
	case modalDistribute:
		view.DistributeForm = task.DefaultDistributeForm(id)
		if req.Distribute != nil {
			view.DistributeForm = *req.Distribute
			view.DistributeForm.TemplateID = id.String()
		}
		if view.RowNum == "" {
			view.RowNum = strconv.Itoa(task.DefaultTemplateRows)
		}
		view.StashedFile = h.stashedFileName(ctx, jti, id)
	}
	return view, nil
}

func stashKey(id coupon.TemplateID) string {
	return "distribute-file:" + id.String()
}

func (h *CouponHandler) stashedFileName(ctx context.Context, jti string, id coupon.TemplateID) string {
	if jti == "" {
		return ""
	}
	var upload task.Upload
	ok, err := h.sessions.Unstash(ctx, jti, stashKey(id), &upload)
	if err != nil {
		h.logger.Warn("failed to read stashed upload", zap.String("template_id", id.String()), zap.Error(err))
		return ""
	}
	if !ok {
		return ""
	}
	return upload.Filename
}
