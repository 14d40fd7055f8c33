package organizations

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assembly-hq/assembly/internal/gate"
)

type countingSource struct {
	memberships map[uuid.UUID]gate.Role
	calls       int
}

func (s *countingSource) MembershipsOf(context.Context, uuid.UUID) (map[uuid.UUID]gate.Role, error) {
	s.calls++
	return s.memberships, nil
}

func newCacheFixture(t *testing.T, source MembershipSource, ttl time.Duration) (*MembershipCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewMembershipCache(client, source, ttl, logger), mr
}

func TestMembershipCacheReadThrough(t *testing.T) {
	orgID := uuid.New()
	source := &countingSource{memberships: map[uuid.UUID]gate.Role{orgID: gate.RoleAdministrator}}
	cache, _ := newCacheFixture(t, source, time.Minute)

	userID := uuid.New()
	got, err := cache.MembershipsOf(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, gate.RoleAdministrator, got[orgID])
	assert.Equal(t, 1, source.calls)

	// Second read is served from redis.
	got, err = cache.MembershipsOf(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, gate.RoleAdministrator, got[orgID])
	assert.Equal(t, 1, source.calls)
}

func TestMembershipCacheInvalidate(t *testing.T) {
	source := &countingSource{memberships: map[uuid.UUID]gate.Role{}}
	cache, _ := newCacheFixture(t, source, time.Minute)

	userID := uuid.New()
	_, err := cache.MembershipsOf(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, 1, source.calls)

	cache.Invalidate(context.Background(), userID)

	_, err = cache.MembershipsOf(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls, "invalidation forces a reload")
}

func TestMembershipCacheExpiry(t *testing.T) {
	source := &countingSource{memberships: map[uuid.UUID]gate.Role{}}
	cache, mr := newCacheFixture(t, source, time.Second)

	userID := uuid.New()
	_, err := cache.MembershipsOf(context.Background(), userID)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	_, err = cache.MembershipsOf(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)
}

func TestMembershipCacheDiscardsCorruptEntry(t *testing.T) {
	orgID := uuid.New()
	source := &countingSource{memberships: map[uuid.UUID]gate.Role{orgID: gate.RoleRegular}}
	cache, mr := newCacheFixture(t, source, time.Minute)

	userID := uuid.New()
	require.NoError(t, mr.Set(membershipKey(userID), "not json"))

	got, err := cache.MembershipsOf(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, gate.RoleRegular, got[orgID])
	assert.Equal(t, 1, source.calls)
}
