// internal/web/page.go
package web

import "onecoupon-console/internal/pkg/session"

// Page names.
const (
	PageHome      = "home"
	PageCreate    = "create"
	PageList      = "list"
	PageExtension = "extension"
)

type NavItem struct {
	Path   string
	Label  string
	Active bool
}

// Nav lists the header links in display order.
var Nav = []NavItem{
	{Path: "/create-coupon", Label: "Create coupon"},
	{Path: "/list", Label: "Coupon list"},
	{Path: "/extension", Label: "Extensions"},
}

// Page is the data every console page is rendered with. Data holds the
// page specific view.
type Page struct {
	Title    string
	Nav      []NavItem
	Identity session.Identity
	Notices  []session.Notice
	Data     interface{}
}

// NewPage marks the nav item for active as current.
func NewPage(title, active string, identity session.Identity, notices []session.Notice) *Page {
	nav := make([]NavItem, len(Nav))
	for i, item := range Nav {
		item.Active = item.Path == active
		nav[i] = item
	}
	return &Page{
		Title:    title,
		Nav:      nav,
		Identity: identity,
		Notices:  notices,
	}
}

// AddNotice appends a notice for this render only.
func (p *Page) AddNotice(level session.NoticeLevel, message string) {
	p.Notices = append(p.Notices, session.Notice{Level: level, Message: message})
}
