// internal/pkg/session/manager.go
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	xerrors "onecoupon-console/internal/pkg/errors"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "console"

type Manager struct {
	client *redis.Client
	ttl    time.Duration
}

func NewManager(client *redis.Client, ttl time.Duration) *Manager {
	return &Manager{
		client: client,
		ttl:    ttl,
	}
}

// CreateSession mints a session for identity and stores it in Redis.
func (m *Manager) CreateSession(ctx context.Context, identity Identity, ip, userAgent string) (*SessionData, error) {
	now := time.Now()
	session := &SessionData{
		JTI:            ulid.Make().String(),
		Identity:       identity,
		IPAddress:      ip,
		UserAgent:      userAgent,
		LoginAt:        now,
		LastActivityAt: now,
		ExpiresAt:      now.Add(m.ttl),
	}
	if err := m.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// GetSession loads a session and refreshes its activity timestamp.
func (m *Manager) GetSession(ctx context.Context, jti string) (*SessionData, error) {
	data, err := m.client.Get(ctx, m.sessionKey(jti)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, xerrors.ErrSessionExpired
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var session SessionData
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	session.LastActivityAt = time.Now()
	if err := m.save(ctx, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// InvalidateSession removes the session and everything stored under it.
func (m *Manager) InvalidateSession(ctx context.Context, jti string) error {
	keys := []string{m.sessionKey(jti), m.noticeKey(jti)}
	iter := m.client.Scan(ctx, 0, m.stashKey(jti, "*"), 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan session keys: %w", err)
	}
	if err := m.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// IsTokenBlacklisted checks if a token is blacklisted
func (m *Manager) IsTokenBlacklisted(ctx context.Context, jti string) (bool, error) {
	exists, err := m.client.Exists(ctx, m.blacklistKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check blacklist: %w", err)
	}
	return exists > 0, nil
}

// BlacklistToken adds a token to the blacklist
func (m *Manager) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return m.client.Set(ctx, m.blacklistKey(jti), "1", ttl).Err()
}

func (m *Manager) save(ctx context.Context, session *SessionData) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return xerrors.ErrSessionExpired
	}
	if err := m.client.Set(ctx, m.sessionKey(session.JTI), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session in redis: %w", err)
	}
	return nil
}

// Helper functions
func (m *Manager) sessionKey(jti string) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, jti)
}

func (m *Manager) noticeKey(jti string) string {
	return fmt.Sprintf("%s:notice:%s", keyPrefix, jti)
}

func (m *Manager) stashKey(jti, name string) string {
	return fmt.Sprintf("%s:stash:%s:%s", keyPrefix, jti, name)
}

func (m *Manager) lockKey(jti, action string) string {
	return fmt.Sprintf("%s:lock:%s:%s", keyPrefix, jti, action)
}

func (m *Manager) blacklistKey(jti string) string {
	return fmt.Sprintf("%s:blacklist:%s", keyPrefix, jti)
}
