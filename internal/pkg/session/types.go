// internal/pkg/session/types.go
package session

import "time"

// Identity is the operator shown in the console header.
type Identity struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	ShopID   string `json:"shop_id"`
}

type SessionData struct {
	JTI            string    `json:"jti"`
	Identity       Identity  `json:"identity"`
	IPAddress      string    `json:"ip_address"`
	UserAgent      string    `json:"user_agent"`
	LoginAt        time.Time `json:"login_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
	NoticeInfo    NoticeLevel = "info"
)

// Notice is a non-blocking message shown once on the next rendered page.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}
