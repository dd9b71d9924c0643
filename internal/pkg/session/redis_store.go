// internal/pkg/session/redis_store.go
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
)

const (
	noticeTTL = 10 * time.Minute
	stashTTL  = 15 * time.Minute
)

// releaseScript deletes a lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// PushNotice queues a notice for the next page of this session.
func (m *Manager) PushNotice(ctx context.Context, jti string, n Notice) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notice: %w", err)
	}

	key := m.noticeKey(jti)
	pipe := m.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, noticeTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to push notice: %w", err)
	}
	return nil
}

// PopNotices returns and clears the queued notices.
func (m *Manager) PopNotices(ctx context.Context, jti string) ([]Notice, error) {
	key := m.noticeKey(jti)
	pipe := m.client.TxPipeline()
	rng := pipe.LRange(ctx, key, 0, -1)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to pop notices: %w", err)
	}

	raw := rng.Val()
	notices := make([]Notice, 0, len(raw))
	for _, item := range raw {
		var n Notice
		if err := json.Unmarshal([]byte(item), &n); err != nil {
			continue
		}
		notices = append(notices, n)
	}
	return notices, nil
}

// Stash keeps v under name for a short while, e.g. form input that has to
// survive a failed submission.
func (m *Manager) Stash(ctx context.Context, jti, name string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal stash %s: %w", name, err)
	}
	if err := m.client.Set(ctx, m.stashKey(jti, name), data, stashTTL).Err(); err != nil {
		return fmt.Errorf("failed to stash %s: %w", name, err)
	}
	return nil
}

// Unstash loads a stashed value into v. It reports false when nothing is
// stashed under name.
func (m *Manager) Unstash(ctx context.Context, jti, name string, v interface{}) (bool, error) {
	data, err := m.client.Get(ctx, m.stashKey(jti, name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read stash %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal stash %s: %w", name, err)
	}
	return true, nil
}

// DropStash removes a stashed value.
func (m *Manager) DropStash(ctx context.Context, jti, name string) error {
	return m.client.Del(ctx, m.stashKey(jti, name)).Err()
}

// AcquireActionLock guards one in-flight submission per session and action.
// ok is false while a previous submission still holds the lock.
func (m *Manager) AcquireActionLock(ctx context.Context, jti, action string, ttl time.Duration) (release func(), ok bool, err error) {
	key := m.lockKey(jti, action)
	token := ulid.Make().String()

	ok, err = m.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire %s lock: %w", action, err)
	}
	if !ok {
		return nil, false, nil
	}

	release = func() {
		// the request context may already be gone
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, m.client, []string{key}, token).Err()
	}
	return release, true, nil
}
