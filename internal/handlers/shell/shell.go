// internal/handlers/shell/shell.go
package shell

import (
	"net/http"

	"onecoupon-console/internal/middleware"
	"onecoupon-console/internal/pkg/response"
	"onecoupon-console/internal/pkg/session"
	"onecoupon-console/internal/web"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionEnder revokes the current console session.
type SessionEnder interface {
	EndSession(c *gin.Context) error
}

// Shell renders the navigation frame shared by every page and owns the
// session notices shown in it.
type Shell struct {
	sessions *session.Manager
	ender    SessionEnder
	logger   *zap.Logger
}

func NewShell(sessions *session.Manager, ender SessionEnder, logger *zap.Logger) *Shell {
	return &Shell{
		sessions: sessions,
		ender:    ender,
		logger:   logger,
	}
}

// Frame builds the page frame and consumes the pending notices.
func (s *Shell) Frame(c *gin.Context, title, active string) *web.Page {
	var notices []session.Notice
	if jti, ok := middleware.GetJTI(c); ok {
		popped, err := s.sessions.PopNotices(c.Request.Context(), jti)
		if err != nil {
			s.logger.Warn("failed to load notices", zap.String("jti", jti), zap.Error(err))
		}
		notices = popped
	}
	return web.NewPage(title, active, middleware.GetIdentity(c), notices)
}

// Notify queues a notice for the next rendered page, usually the target of
// a redirect.
func (s *Shell) Notify(c *gin.Context, level session.NoticeLevel, message string) {
	jti, ok := middleware.GetJTI(c)
	if !ok {
		return
	}
	if err := s.sessions.PushNotice(c.Request.Context(), jti, session.Notice{Level: level, Message: message}); err != nil {
		s.logger.Error("failed to queue notice",
			zap.String("jti", jti),
			zap.String("message", message),
			zap.Error(err),
		)
	}
}

// ========== Pages ==========

type homeView struct {
	CreatePath string
}

// Home renders the landing page.
func (s *Shell) Home(c *gin.Context) {
	page := s.Frame(c, "oneCoupon merchant console", "/")
	if c.Query("signedOut") == "1" {
		page.AddNotice(session.NoticeInfo, "You have signed out")
	}
	page.Data = homeView{CreatePath: "/create-coupon"}
	response.Page(c, http.StatusOK, web.PageHome, page)
}

// Logout ends the console session. The next request starts a fresh one.
func (s *Shell) Logout(c *gin.Context) {
	if err := s.ender.EndSession(c); err != nil {
		s.logger.Error("failed to end session", zap.Error(err))
		response.Error(c, http.StatusServiceUnavailable, "session store unavailable", nil)
		return
	}
	response.Redirect(c, "/?signedOut=1")
}
