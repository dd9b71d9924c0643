// internal/web/render.go
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"

	"onecoupon-console/internal/domain/coupon"
	"onecoupon-console/internal/domain/task"
	xerrors "onecoupon-console/internal/pkg/errors"
	"onecoupon-console/internal/pkg/session"

	"github.com/gin-gonic/gin/render"
)

//go:embed templates
var templateFS embed.FS

// Renderer holds one template set per page so every page can define its
// own "content" block on top of the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

var _ render.HTMLRender = (*Renderer)(nil)

func NewRenderer() (*Renderer, error) {
	base, err := template.New("layout").Funcs(funcMap()).ParseFS(templateFS,
		"templates/layout.tmpl",
		"templates/partials/*.tmpl",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	files, err := fs.Glob(templateFS, "templates/pages/*.tmpl")
	if err != nil {
		return nil, err
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(files))}
	for _, file := range files {
		name := strings.TrimSuffix(path.Base(file), ".tmpl")
		t, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(templateFS, file); err != nil {
			return nil, fmt.Errorf("failed to parse page %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Instance implements render.HTMLRender.
func (r *Renderer) Instance(name string, data interface{}) render.Render {
	t, ok := r.pages[name]
	if !ok {
		panic(fmt.Sprintf("console page %q is not defined", name))
	}
	return render.HTML{Template: t, Name: "layout", Data: data}
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"fieldError": func(errs xerrors.FieldErrors, field string) string {
			return errs[field]
		},
		"sourceOptions":   func() []coupon.Option { return coupon.SourceOptions },
		"targetOptions":   func() []coupon.Option { return coupon.TargetOptions },
		"typeOptions":     func() []coupon.Option { return coupon.TypeOptions },
		"notifyOptions":   func() []coupon.Option { return task.NotifyOptions },
		"sendTypeOptions": func() []coupon.Option { return task.SendTypeOptions },
		"prettyRule":      coupon.PrettyRule,
		"wireTime": func(ts coupon.Timestamp) string {
			if ts.IsZero() {
				return "-"
			}
			return ts.Format(coupon.WireTimeLayout)
		},
		"noticeClass": func(level session.NoticeLevel) string {
			return "notice notice-" + string(level)
		},
	}
}
