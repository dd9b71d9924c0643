// internal/handlers/coupon/distribute.go
package coupon

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"onecoupon-console/internal/domain/coupon"
	"onecoupon-console/internal/domain/task"
	"onecoupon-console/internal/handlers/shell"
	"onecoupon-console/internal/middleware"
	xerrors "onecoupon-console/internal/pkg/errors"
	"onecoupon-console/internal/pkg/response"
	"onecoupon-console/internal/pkg/session"
	tasksvc "onecoupon-console/internal/service/task"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// multipartOverhead leaves room for the text fields next to the file.
const multipartOverhead = 1 << 20

// Distribute creates a distribution task from the modal. Failures re-open
// the modal with every value intact and the chosen file kept in the session.
func (h *CouponHandler) Distribute(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.tasks.MaxUploadBytes()+multipartOverhead)

	var form task.DistributeForm
	bindErr := c.ShouldBind(&form)
	q, back := returnTarget(form.ReturnTo)
	jti := middleware.MustGetJTI(c)
	ctx := c.Request.Context()

	var tooLarge *http.MaxBytesError
	if errors.As(bindErr, &tooLarge) {
		fields := xerrors.FieldErrors{}
		fields.Add("file", xerrors.ErrUploadTooLarge.Error())
		h.renderList(c, http.StatusRequestEntityTooLarge, h.shell.Frame(c, "Coupon list", listPath), q, &modalRequest{
			Kind:       modalDistribute,
			RawID:      form.TemplateID,
			Distribute: &form,
			Errors:     fields,
		})
		return
	}

	upload, err := h.readUpload(c)
	if err != nil {
		h.logger.Warn("failed to read uploaded file", zap.Error(err))
	}
	id, _ := coupon.ParseTemplateID(form.TemplateID)
	if upload == nil && id != "" {
		var stashed task.Upload
		if ok, err := h.sessions.Unstash(ctx, jti, stashKey(id), &stashed); err == nil && ok {
			upload = &stashed
		}
	}

	req, err := h.tasks.PrepareDistribute(form, upload)
	if err != nil || bindErr != nil {
		fields := shell.Merge(err, shell.BindingErrors(bindErr))
		if _, bad := fields["file"]; !bad {
			h.stashUpload(c, jti, id, upload)
		}
		h.renderList(c, http.StatusUnprocessableEntity, h.shell.Frame(c, "Coupon list", listPath), q, &modalRequest{
			Kind:       modalDistribute,
			RawID:      form.TemplateID,
			Distribute: &form,
			Errors:     fields,
		})
		return
	}

	release, ok := h.lock(c, "distribute")
	if !ok {
		response.Redirect(c, back)
		return
	}
	defer release()

	if _, err = h.coupons.EnsureActive(ctx, req.CouponTemplateID); err == nil {
		var info string
		if info, err = h.tasks.Distribute(ctx, req); err == nil {
			if err := h.sessions.DropStash(ctx, jti, stashKey(req.CouponTemplateID)); err != nil {
				h.logger.Warn("failed to drop stashed upload", zap.Error(err))
			}
			if info == "" {
				info = "Distribution task created"
			}
			h.shell.Notify(c, session.NoticeSuccess, info)
			response.Redirect(c, back)
			return
		}
	}

	if shell.Abandoned(c, err) {
		return
	}
	h.stashUpload(c, jti, req.CouponTemplateID, upload)
	page := h.shell.Frame(c, "Coupon list", listPath)
	page.AddNotice(session.NoticeError, shell.Describe(err))
	h.renderList(c, http.StatusOK, page, q, &modalRequest{
		Kind:       modalDistribute,
		RawID:      form.TemplateID,
		Distribute: &form,
	})
}

// TemplateFile is the distribute modal's inline recipient template
// download.
func (h *CouponHandler) TemplateFile(c *gin.Context) {
	var form task.TemplateFileForm
	if err := c.ShouldBindQuery(&form); err != nil {
		h.logger.Debug("template file query bind failed", zap.Error(err))
	}
	q, _ := returnTarget(c.Query("returnTo"))
	rawID := c.Query("couponTemplateId")

	rowNum, err := tasksvc.ParseRowNum(form.RowNum)
	if err != nil {
		fields, _ := xerrors.AsFieldErrors(err)
		h.renderList(c, http.StatusUnprocessableEntity, h.shell.Frame(c, "Coupon list", listPath), q, &modalRequest{
			Kind:   modalDistribute,
			RawID:  rawID,
			RowNum: form.RowNum,
			Errors: fields,
		})
		return
	}

	f, err := h.tasks.TemplateFile(c.Request.Context(), rowNum)
	if err != nil {
		if shell.Abandoned(c, err) {
			return
		}
		page := h.shell.Frame(c, "Coupon list", listPath)
		page.AddNotice(session.NoticeError, shell.Describe(err))
		h.renderList(c, http.StatusOK, page, q, &modalRequest{
			Kind:   modalDistribute,
			RawID:  rawID,
			RowNum: form.RowNum,
		})
		return
	}
	defer f.Body.Close()

	response.Attachment(c, task.TemplateFileName, f.ContentType, f.ContentLength, f.Body)
}

// readUpload returns nil when no file was chosen. At most one byte past the
// limit is read so oversized files are still reported as such.
func (h *CouponHandler) readUpload(c *gin.Context) (*task.Upload, error) {
	fh, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if fh.Filename == "" {
		return nil, nil
	}
	return readFileHeader(fh, h.tasks.MaxUploadBytes()+1)
}

func readFileHeader(fh *multipart.FileHeader, limit int64) (*task.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, limit))
	if err != nil {
		return nil, err
	}
	return &task.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Content:     content,
	}, nil
}

func (h *CouponHandler) stashUpload(c *gin.Context, jti string, id coupon.TemplateID, upload *task.Upload) {
	if upload == nil || id == "" || len(upload.Content) == 0 {
		return
	}
	if err := h.sessions.Stash(c.Request.Context(), jti, stashKey(id), upload); err != nil {
		h.logger.Warn("failed to stash upload", zap.String("template_id", id.String()), zap.Error(err))
	}
}
