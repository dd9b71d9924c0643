// internal/handlers/coupon/list.go
package coupon

import (
	"net/http"
	"net/url"
	"strconv"

	"onecoupon-console/internal/domain/coupon"
	"onecoupon-console/internal/handlers/shell"
	"onecoupon-console/internal/middleware"
	xerrors "onecoupon-console/internal/pkg/errors"
	"onecoupon-console/internal/pkg/response"
	"onecoupon-console/internal/pkg/session"
	couponsvc "onecoupon-console/internal/service/coupon"
	"onecoupon-console/internal/web"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	listPath = "/list"

	// pageWindow is how many page links are shown around the current page.
	pageWindow = 7
)

type pageLink struct {
	Num     int
	URL     string
	Current bool
}

type sizeLink struct {
	Size    int
	URL     string
	Current bool
}

type listView struct {
	Filter       coupon.ListFilterForm
	GoodsVisible bool
	Items        []coupon.Template
	Total        int64
	PageNum      int
	PageSize     int
	PageCount    int
	Pages        []pageLink
	PrevURL      string
	NextURL      string
	Sizes        []sizeLink
	ResetURL     string
	SelfURL      string
	Modal        *modalView
}

// List renders the filtered, paged table. A failed query still renders the
// page with an empty table and an error notice.
func (h *CouponHandler) List(c *gin.Context) {
	var form coupon.ListFilterForm
	if err := c.ShouldBindQuery(&form); err != nil {
		// unparsable filters fall back to their defaults
		h.logger.Debug("list filters ignored", zap.Error(err))
	}
	q := form.ToQueryParams()

	var modal *modalRequest
	if kind := c.Query("modal"); kind != "" {
		modal = &modalRequest{Kind: kind, RawID: c.Query("id")}
	}
	h.renderList(c, http.StatusOK, h.shell.Frame(c, "Coupon list", listPath), q, modal)
}

// Terminate ends a template after confirmation and returns to the same
// page and filters.
func (h *CouponHandler) Terminate(c *gin.Context) {
	var form coupon.TerminateForm
	if err := c.ShouldBind(&form); err != nil {
		// the template id is re-parsed below
		h.logger.Debug("terminate form bind failed", zap.Error(err))
	}
	_, back := returnTarget(form.ReturnTo)

	id, err := coupon.ParseTemplateID(form.TemplateID)
	if err != nil {
		h.shell.Notify(c, session.NoticeError, shell.Describe(xerrors.ErrNotFound))
		response.Redirect(c, back)
		return
	}

	release, ok := h.lock(c, "terminate")
	if !ok {
		response.Redirect(c, back)
		return
	}
	defer release()

	ctx := c.Request.Context()
	if _, err := h.coupons.EnsureActive(ctx, id); err != nil {
		if shell.Abandoned(c, err) {
			return
		}
		h.shell.Notify(c, session.NoticeError, shell.Describe(err))
		response.Redirect(c, back)
		return
	}

	info, err := h.coupons.Terminate(ctx, id)
	if err != nil {
		if shell.Abandoned(c, err) {
			return
		}
		h.shell.Notify(c, session.NoticeError, shell.Describe(err))
		response.Redirect(c, back)
		return
	}

	if info == "" {
		info = "Coupon template terminated"
	}
	h.shell.Notify(c, session.NoticeSuccess, info)
	response.Redirect(c, back)
}

// IncreaseStock adds stock to an active template. Invalid amounts re-open
// the modal with an inline error and never reach the backend.
func (h *CouponHandler) IncreaseStock(c *gin.Context) {
	var form coupon.IncreaseStockForm
	bindErr := c.ShouldBind(&form)
	q, back := returnTarget(form.ReturnTo)

	id, amount, err := h.coupons.PrepareIncreaseStock(form)
	if err != nil || bindErr != nil {
		h.renderList(c, http.StatusUnprocessableEntity, h.shell.Frame(c, "Coupon list", listPath), q, &modalRequest{
			Kind:   modalStock,
			RawID:  form.TemplateID,
			Stock:  &form,
			Errors: shell.Merge(err, shell.BindingErrors(bindErr)),
		})
		return
	}

	release, ok := h.lock(c, "increase-stock")
	if !ok {
		response.Redirect(c, back)
		return
	}
	defer release()

	ctx := c.Request.Context()
	if _, err := h.coupons.EnsureActive(ctx, id); err != nil {
		if shell.Abandoned(c, err) {
			return
		}
		h.shell.Notify(c, session.NoticeError, shell.Describe(err))
		response.Redirect(c, back)
		return
	}

	info, err := h.coupons.IncreaseStock(ctx, id, amount)
	if err != nil {
		if shell.Abandoned(c, err) {
			return
		}
		h.shell.Notify(c, session.NoticeError, shell.Describe(err))
		response.Redirect(c, back)
		return
	}

	if info == "" {
		info = "Stock increased by " + strconv.FormatInt(amount, 10)
	}
	h.shell.Notify(c, session.NoticeSuccess, info)
	response.Redirect(c, back)
}

// renderList queries the page and, when asked, loads the modal's template
// detail alongside it.
func (h *CouponHandler) renderList(c *gin.Context, status int, page *web.Page, q coupon.QueryParams, modal *modalRequest) {
	ctx := c.Request.Context()
	self := listURL(q)
	jti, _ := middleware.GetJTI(c)

	var (
		g        errgroup.Group
		result   *couponsvc.Page
		queryErr error
		view     *modalView
		modalErr error
	)
	g.Go(func() error {
		result, queryErr = h.coupons.PageTemplates(ctx, q)
		return nil
	})
	if modal != nil {
		g.Go(func() error {
			view, modalErr = h.loadModal(ctx, jti, modal, self)
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		c.Abort()
		return
	}

	lv := newListView(q)
	if queryErr != nil {
		h.logger.Warn("coupon template query failed", zap.Error(queryErr))
		page.AddNotice(session.NoticeError, shell.Describe(queryErr))
	} else {
		lv.setResult(q, result)
	}
	if modalErr != nil {
		page.AddNotice(session.NoticeError, shell.Describe(modalErr))
	}
	lv.Modal = view

	page.Data = lv
	response.Page(c, status, web.PageList, page)
}

// lock takes the per-session submit lock for action. When it cannot, a
// notice is queued and ok is false.
func (h *CouponHandler) lock(c *gin.Context, action string) (release func(), ok bool) {
	release, ok, err := h.sessions.AcquireActionLock(c.Request.Context(), middleware.MustGetJTI(c), action, submitLockTTL)
	if err != nil {
		h.logger.Error("failed to acquire submit lock", zap.String("action", action), zap.Error(err))
		h.shell.Notify(c, session.NoticeError, shell.GenericFailure)
		return nil, false
	}
	if !ok {
		h.shell.Notify(c, session.NoticeError, shell.Describe(xerrors.ErrDuplicateSubmit))
		return nil, false
	}
	return release, true
}

// --- Helper functions ---

func newListView(q coupon.QueryParams) *listView {
	filter := coupon.ListFilterForm{
		PageNum:  strconv.Itoa(q.PageNum),
		PageSize: strconv.Itoa(q.PageSize),
		Name:     q.Name,
		Goods:    q.Goods,
	}
	if q.Target != nil {
		filter.Target = strconv.Itoa(int(*q.Target))
	}
	if q.Type != nil {
		filter.Type = strconv.Itoa(int(*q.Type))
	}

	lv := &listView{
		Filter:       filter,
		GoodsVisible: coupon.GoodsFieldVisible(filter.Target),
		PageNum:      q.PageNum,
		PageSize:     q.PageSize,
		PageCount:    1,
		SelfURL:      listURL(q),
		ResetURL:     listURL(coupon.QueryParams{PageNum: 1, PageSize: q.PageSize}),
	}
	for _, size := range coupon.PageSizes {
		sq := q
		sq.PageNum = 1
		sq.PageSize = size
		lv.Sizes = append(lv.Sizes, sizeLink{Size: size, URL: listURL(sq), Current: size == q.PageSize})
	}
	lv.buildPages(q)
	return lv
}

func (lv *listView) setResult(q coupon.QueryParams, p *couponsvc.Page) {
	lv.Items = p.Items
	lv.Total = p.Total
	lv.PageCount = pageCount(p.Total, lv.PageSize)
	lv.buildPages(q)
}

// buildPages is called again once the total is known.
func (lv *listView) buildPages(q coupon.QueryParams) {
	at := func(n int) string {
		pq := q
		pq.PageNum = n
		return listURL(pq)
	}

	first := q.PageNum - pageWindow/2
	if first < 1 {
		first = 1
	}
	last := first + pageWindow - 1
	if last > lv.PageCount {
		last = lv.PageCount
	}
	if q.PageNum > last {
		last = q.PageNum
	}

	lv.Pages = lv.Pages[:0]
	for n := first; n <= last; n++ {
		lv.Pages = append(lv.Pages, pageLink{Num: n, URL: at(n), Current: n == q.PageNum})
	}
	lv.PrevURL, lv.NextURL = "", ""
	if q.PageNum > 1 {
		lv.PrevURL = at(q.PageNum - 1)
	}
	if q.PageNum < lv.PageCount {
		lv.NextURL = at(q.PageNum + 1)
	}
}

func pageCount(total int64, size int) int {
	if total <= 0 || size <= 0 {
		return 1
	}
	return int((total + int64(size) - 1) / int64(size))
}

// listURL is the canonical list address of a query.
func listURL(q coupon.QueryParams) string {
	return listPath + "?" + q.Values().Encode()
}

// returnTarget reads the list address a modal was opened from. Anything
// that is not a list address falls back to the first page.
func returnTarget(raw string) (coupon.QueryParams, string) {
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() || u.Host != "" || u.Path != listPath {
		q := coupon.DefaultQuery()
		return q, listURL(q)
	}
	v := u.Query()
	q := coupon.ListFilterForm{
		PageNum:  v.Get("pageNum"),
		PageSize: v.Get("pageSize"),
		Name:     v.Get("name"),
		Target:   v.Get("target"),
		Goods:    v.Get("goods"),
		Type:     v.Get("type"),
	}.ToQueryParams()
	return q, listURL(q)
}
