package organizations

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/assembly-hq/assembly/internal/gate"
)

// MembershipSource loads a user's memberships from storage.
type MembershipSource interface {
	MembershipsOf(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]gate.Role, error)
}

// MembershipCache is a redis read-through over MembershipSource. The auth
// middleware hits it once per request, so concurrent fills for the same user
// are collapsed through singleflight. Redis failures degrade to the source;
// they never fail the request.
type MembershipCache struct {
	client *redis.Client
	source MembershipSource
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

// NewMembershipCache constructs a MembershipCache.
func NewMembershipCache(client *redis.Client, source MembershipSource, ttl time.Duration, logger *slog.Logger) *MembershipCache {
	return &MembershipCache{client: client, source: source, ttl: ttl, logger: logger}
}

func membershipKey(userID uuid.UUID) string {
	return "memberships:" + userID.String()
}

// MembershipsOf implements auth.MembershipLookup.
func (c *MembershipCache) MembershipsOf(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]gate.Role, error) {
	key := membershipKey(userID)
	if payload, err := c.client.Get(ctx, key).Bytes(); err == nil {
		if memberships, err := decodeMemberships(payload); err == nil {
			return memberships, nil
		}
		c.logger.Warn("discarding undecodable membership cache entry", slog.String("user_id", userID.String()))
		_ = c.client.Del(ctx, key).Err()
	} else if err != redis.Nil {
		c.logger.Warn("membership cache read", slog.Any("error", err))
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		memberships, err := c.source.MembershipsOf(ctx, userID)
		if err != nil {
			return nil, err
		}
		if payload, err := encodeMemberships(memberships); err == nil {
			if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
				c.logger.Warn("membership cache write", slog.Any("error", err))
			}
		}
		return memberships, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(map[uuid.UUID]gate.Role), nil
}

// Invalidate drops the cached memberships of a user. Called after every
// membership mutation so role changes take effect on the next request.
func (c *MembershipCache) Invalidate(ctx context.Context, userID uuid.UUID) {
	if err := c.client.Del(ctx, membershipKey(userID)).Err(); err != nil {
		c.logger.Warn("membership cache invalidate", slog.String("user_id", userID.String()), slog.Any("error", err))
	}
}

func encodeMemberships(memberships map[uuid.UUID]gate.Role) ([]byte, error) {
	wire := make(map[string]string, len(memberships))
	for orgID, role := range memberships {
		wire[orgID.String()] = role.String()
	}
	return json.Marshal(wire)
}

func decodeMemberships(payload []byte) (map[uuid.UUID]gate.Role, error) {
	var wire map[string]string
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, err
	}
	memberships := make(map[uuid.UUID]gate.Role, len(wire))
	for rawOrg, rawRole := range wire {
		orgID, err := uuid.Parse(rawOrg)
		if err != nil {
			return nil, err
		}
		role, err := gate.ParseRole(rawRole)
		if err != nil {
			return nil, err
		}
		memberships[orgID] = role
	}
	return memberships, nil
}
