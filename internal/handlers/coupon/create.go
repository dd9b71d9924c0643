// internal/handlers/coupon/create.go
package coupon

import (
	"net/http"

	"onecoupon-console/internal/domain/coupon"
	"onecoupon-console/internal/handlers/shell"
	"onecoupon-console/internal/middleware"
	xerrors "onecoupon-console/internal/pkg/errors"
	"onecoupon-console/internal/pkg/response"
	"onecoupon-console/internal/pkg/session"
	"onecoupon-console/internal/web"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const createPath = "/create-coupon"

type createView struct {
	Form       coupon.CreateTemplateForm
	Errors     xerrors.FieldErrors
	PresetPath string
}

// CreatePage renders an empty creation form, or the sample values with
// ?preset=defaults. Nothing is submitted.
func (h *CouponHandler) CreatePage(c *gin.Context) {
	now := h.now().In(h.location)
	form := coupon.DefaultCreateForm(now)
	if c.Query("preset") == "defaults" {
		form = coupon.PresetCreateForm(now)
	}
	h.renderCreate(c, http.StatusOK, h.shell.Frame(c, "Create coupon", createPath), form, nil)
}

// CreateTemplate validates and submits the creation form. Success redirects
// to an empty form; any failure re-renders the entered values.
func (h *CouponHandler) CreateTemplate(c *gin.Context) {
	var form coupon.CreateTemplateForm
	bindErr := c.ShouldBind(&form)

	req, err := h.coupons.PrepareCreate(form)
	if err != nil || bindErr != nil {
		fields := shell.Merge(err, shell.BindingErrors(bindErr))
		h.renderCreate(c, http.StatusUnprocessableEntity, h.shell.Frame(c, "Create coupon", createPath), form, fields)
		return
	}

	ctx := c.Request.Context()
	release, ok, err := h.sessions.AcquireActionLock(ctx, middleware.MustGetJTI(c), "create-coupon", submitLockTTL)
	if err != nil {
		h.logger.Error("failed to acquire submit lock", zap.Error(err))
		page := h.shell.Frame(c, "Create coupon", createPath)
		page.AddNotice(session.NoticeError, shell.GenericFailure)
		h.renderCreate(c, http.StatusServiceUnavailable, page, form, nil)
		return
	}
	if !ok {
		page := h.shell.Frame(c, "Create coupon", createPath)
		page.AddNotice(session.NoticeError, shell.Describe(xerrors.ErrDuplicateSubmit))
		h.renderCreate(c, http.StatusConflict, page, form, nil)
		return
	}
	defer release()

	info, err := h.coupons.Create(ctx, req)
	if err != nil {
		if shell.Abandoned(c, err) {
			return
		}
		page := h.shell.Frame(c, "Create coupon", createPath)
		page.AddNotice(session.NoticeError, shell.Describe(err))
		h.renderCreate(c, http.StatusOK, page, form, nil)
		return
	}

	if info == "" {
		info = "Coupon template created"
	}
	h.shell.Notify(c, session.NoticeSuccess, info)
	response.Redirect(c, createPath)
}

func (h *CouponHandler) renderCreate(c *gin.Context, status int, page *web.Page, form coupon.CreateTemplateForm, fields xerrors.FieldErrors) {
	page.Data = createView{
		Form:       form,
		Errors:     fields,
		PresetPath: createPath + "?preset=defaults",
	}
	response.Page(c, status, web.PageCreate, page)
}
