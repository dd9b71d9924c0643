// internal/middleware/session_middleware.go
package middleware

import (
	"errors"
	"net/http"
	"time"

	xerrors "onecoupon-console/internal/pkg/errors"
	"onecoupon-console/internal/pkg/jwt"
	"onecoupon-console/internal/pkg/response"
	"onecoupon-console/internal/pkg/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	ctxSession  = "session"
	ctxJTI      = "jti"
	ctxIdentity = "identity"
)

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

type SessionMiddleware struct {
	sessions *session.Manager
	tokens   *jwt.Manager
	cookie   CookieConfig
	operator session.Identity
	logger   *zap.Logger
}

func NewSessionMiddleware(sessions *session.Manager, tokens *jwt.Manager, cookie CookieConfig, operator session.Identity, logger *zap.Logger) *SessionMiddleware {
	return &SessionMiddleware{
		sessions: sessions,
		tokens:   tokens,
		cookie:   cookie,
		operator: operator,
		logger:   logger,
	}
}

// Session resumes the console session from the cookie or starts a new one
// for the configured operator. A failing session store yields 503.
func (m *SessionMiddleware) Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := m.resume(c)
		if err == nil && data == nil {
			data, err = m.start(c)
		}
		if err != nil {
			m.logger.Error("session store unavailable",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
			response.Error(c, http.StatusServiceUnavailable, "session store unavailable", nil)
			return
		}

		c.Set(ctxSession, data)
		c.Set(ctxJTI, data.JTI)
		c.Set(ctxIdentity, data.Identity)
		c.Next()
	}
}

// EndSession revokes the current token, drops its Redis state and clears
// the cookie.
func (m *SessionMiddleware) EndSession(c *gin.Context) error {
	data, ok := GetSession(c)
	if !ok {
		m.clearCookie(c)
		return nil
	}

	ctx := c.Request.Context()
	if err := m.sessions.BlacklistToken(ctx, data.JTI, time.Until(data.ExpiresAt)); err != nil {
		return xerrors.Wrap(err, "failed to revoke session token")
	}
	if err := m.sessions.InvalidateSession(ctx, data.JTI); err != nil {
		return err
	}
	m.clearCookie(c)

	m.logger.Info("console session ended",
		zap.String("jti", data.JTI),
		zap.String("user_id", data.Identity.UserID),
	)
	return nil
}

// resume returns nil without error when there is no usable session.
func (m *SessionMiddleware) resume(c *gin.Context) (*session.SessionData, error) {
	token, err := c.Cookie(m.cookie.Name)
	if err != nil || token == "" {
		return nil, nil
	}

	claims, err := m.tokens.Verifier.Verify(token)
	if err != nil {
		m.logger.Debug("discarding session cookie", zap.Error(err))
		return nil, nil
	}

	ctx := c.Request.Context()
	revoked, err := m.sessions.IsTokenBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, nil
	}

	data, err := m.sessions.GetSession(ctx, claims.ID)
	if errors.Is(err, xerrors.ErrSessionExpired) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (m *SessionMiddleware) start(c *gin.Context) (*session.SessionData, error) {
	data, err := m.sessions.CreateSession(c.Request.Context(), m.operator, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		return nil, err
	}

	id := data.Identity
	token, err := m.tokens.Generator.Generate(data.JTI, id.UserID, id.Username, id.ShopID, data.ExpiresAt)
	if err != nil {
		return nil, xerrors.Wrap(err, "failed to sign session token")
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookie.Name, token, int(time.Until(data.ExpiresAt).Seconds()), "/", "", m.cookie.Secure, true)

	m.logger.Info("console session started",
		zap.String("jti", data.JTI),
		zap.String("user_id", id.UserID),
		zap.String("ip", data.IPAddress),
	)
	return data, nil
}

func (m *SessionMiddleware) clearCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookie.Name, "", -1, "/", "", m.cookie.Secure, true)
}
