package accounts

import (
	"context"
	"time"

	"brokerage-backend/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const userSessionsPrefix = "user_sessions:"

// TrackSession remembers sid under the user so a role change can revoke it.
func TrackSession(ctx context.Context, rdb *redis.Client, userID, sid string) {
	if rdb == nil || userID == "" || sid == "" {
		return
	}
	key := userSessionsPrefix + userID
	rdb.SAdd(ctx, key, sid)
	rdb.Expire(ctx, key, 24*time.Hour)
}

// DestroyUserSessions deletes every tracked session of the user.
func DestroyUserSessions(ctx context.Context, rdb *redis.Client, userID string) {
	if rdb == nil || userID == "" {
		return
	}
	key := userSessionsPrefix + userID
	sessionIDs, err := rdb.SMembers(ctx, key).Result()
	if err == nil {
		for _, sid := range sessionIDs {
			rdb.Del(ctx, middleware.SessionRedisPrefix+sid)
		}
	}
	rdb.Del(ctx, key)
}
