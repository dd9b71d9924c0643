package web

import (
	"net/http/httptest"
	"testing"
	"time"

	"onecoupon-console/internal/domain/coupon"
	xerrors "onecoupon-console/internal/pkg/errors"
	"onecoupon-console/internal/pkg/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type homeData struct {
	CreatePath string
}

type extensionData struct {
	RowNum string
	Errors xerrors.FieldErrors
}

func renderPage(t *testing.T, r *Renderer, name string, page *Page) string {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, r.Instance(name, page).Render(rec))
	return rec.Body.String()
}

func TestRenderer_ParsesEveryPage(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	for _, name := range []string{PageHome, PageCreate, PageList, PageExtension} {
		assert.Contains(t, r.pages, name)
	}
	assert.Panics(t, func() { r.Instance("missing", nil) })
}

func TestRenderer_HomeShowsShell(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	identity := session.Identity{UserID: "100012345", Username: "shency", ShopID: "1000501L"}
	page := NewPage("Home", "/", identity, []session.Notice{{Level: session.NoticeSuccess, Message: "saved"}})
	page.AddNotice(session.NoticeInfo, "You have signed out")
	page.Data = homeData{CreatePath: "/create-coupon"}

	body := renderPage(t, r, PageHome, page)
	assert.Contains(t, body, "<title>Home</title>")
	assert.Contains(t, body, `href="/create-coupon"`)
	assert.Contains(t, body, `href="/list"`)
	assert.Contains(t, body, `href="/extension"`)
	assert.Contains(t, body, "shency")
	assert.Contains(t, body, "1000501L")
	assert.Contains(t, body, `class="notice notice-success"`)
	assert.Contains(t, body, "saved")
	assert.Contains(t, body, "You have signed out")
}

func TestRenderer_ExtensionShowsFieldError(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	page := NewPage("Extensions", "/extension", session.Identity{}, nil)
	page.Data = extensionData{RowNum: "0", Errors: xerrors.FieldErrors{"rowNum": "Row count must be a whole number of at least 1"}}

	body := renderPage(t, r, PageExtension, page)
	assert.Contains(t, body, `class="active"`)
	assert.Contains(t, body, "Row count must be a whole number of at least 1")
}

func TestRenderer_CreateEscapesInput(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	form := coupon.DefaultCreateForm(time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC))
	form.Name = `<script>alert(1)</script>`
	page := NewPage("Create coupon", "/create-coupon", session.Identity{}, nil)
	page.Data = struct {
		Form       coupon.CreateTemplateForm
		Errors     xerrors.FieldErrors
		PresetPath string
	}{Form: form, PresetPath: "/create-coupon?preset=defaults"}

	body := renderPage(t, r, PageCreate, page)
	assert.NotContains(t, body, `<script>alert(1)</script>`)
	assert.Contains(t, body, `value="2026-10-16T09:00:00"`)
}
