package session

import (
	"context"
	"testing"
	"time"

	xerrors "onecoupon-console/internal/pkg/errors"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*Manager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewManager(client, time.Hour), mr
}

var operator = Identity{UserID: "100012345", Username: "shency", ShopID: "1000501L"}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	m, mr := newTestManager(t)

	s, err := m.CreateSession(ctx, operator, "127.0.0.1", "test")
	require.NoError(t, err)
	assert.NotEmpty(t, s.JTI)
	assert.True(t, mr.Exists("console:session:"+s.JTI))

	got, err := m.GetSession(ctx, s.JTI)
	require.NoError(t, err)
	assert.Equal(t, operator, got.Identity)

	require.NoError(t, m.Stash(ctx, s.JTI, "distribute", map[string]string{"a": "b"}))
	require.NoError(t, m.PushNotice(ctx, s.JTI, Notice{Level: NoticeInfo, Message: "hi"}))
	require.NoError(t, m.InvalidateSession(ctx, s.JTI))

	_, err = m.GetSession(ctx, s.JTI)
	assert.ErrorIs(t, err, xerrors.ErrSessionExpired)
	assert.Empty(t, mr.Keys())
}

func TestSessionExpires(t *testing.T) {
	ctx := context.Background()
	m, mr := newTestManager(t)

	s, err := m.CreateSession(ctx, operator, "", "")
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)
	_, err = m.GetSession(ctx, s.JTI)
	assert.ErrorIs(t, err, xerrors.ErrSessionExpired)
}

func TestBlacklist(t *testing.T) {
	ctx := context.Background()
	m, mr := newTestManager(t)

	revoked, err := m.IsTokenBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, m.BlacklistToken(ctx, "jti-1", time.Minute))
	revoked, err = m.IsTokenBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Minute)
	revoked, err = m.IsTokenBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestNotices_PopOnce(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	require.NoError(t, m.PushNotice(ctx, "j", Notice{Level: NoticeSuccess, Message: "one"}))
	require.NoError(t, m.PushNotice(ctx, "j", Notice{Level: NoticeError, Message: "two"}))

	notices, err := m.PopNotices(ctx, "j")
	require.NoError(t, err)
	assert.Equal(t, []Notice{
		{Level: NoticeSuccess, Message: "one"},
		{Level: NoticeError, Message: "two"},
	}, notices)

	notices, err = m.PopNotices(ctx, "j")
	require.NoError(t, err)
	assert.Empty(t, notices)
}

func TestStash(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	type upload struct {
		Name    string
		Content []byte
	}

	var got upload
	ok, err := m.Unstash(ctx, "j", "file", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Stash(ctx, "j", "file", upload{Name: "users.xlsx", Content: []byte{0, 1, 2}}))
	ok, err = m.Unstash(ctx, "j", "file", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, upload{Name: "users.xlsx", Content: []byte{0, 1, 2}}, got)

	require.NoError(t, m.DropStash(ctx, "j", "file"))
	ok, err = m.Unstash(ctx, "j", "file", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestActionLock(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	release, ok, err := m.AcquireActionLock(ctx, "j", "create", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = m.AcquireActionLock(ctx, "j", "create", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second submit must be refused while the first is in flight")

	_, ok, err = m.AcquireActionLock(ctx, "other", "create", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "locks are per session")

	release()
	release2, ok, err := m.AcquireActionLock(ctx, "j", "create", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	release2()
}

func TestRedisUnavailable(t *testing.T) {
	ctx := context.Background()
	m, mr := newTestManager(t)
	mr.Close()

	_, err := m.CreateSession(ctx, operator, "", "")
	assert.Error(t, err)
}
