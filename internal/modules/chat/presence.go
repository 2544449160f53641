// README: Ride chat presence tracked in Redis sets.
package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"campool/internal/types"
)

const presenceTTL = 24 * time.Hour

// Presence records which members currently hold a live chat session for a
// ride. It is advisory data for clients ("3 online"), so writes are best
// effort and keys expire on their own if a node dies without cleaning up.
type Presence struct {
	rdb *redis.Client
}

func NewPresence(rdb *redis.Client) *Presence {
	return &Presence{rdb: rdb}
}

func presenceKey(rideID types.ID) string {
	return fmt.Sprintf("chat:ride:%s:members", rideID)
}

func (p *Presence) Connected(ctx context.Context, rideID, userID types.ID) error {
	key := presenceKey(rideID)
	pipe := p.rdb.Pipeline()
	pipe.SAdd(ctx, key, string(userID))
	pipe.Expire(ctx, key, presenceTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (p *Presence) Disconnected(ctx context.Context, rideID, userID types.ID) error {
	return p.rdb.SRem(ctx, presenceKey(rideID), string(userID)).Err()
}

func (p *Presence) Online(ctx context.Context, rideID types.ID) ([]types.ID, error) {
	members, err := p.rdb.SMembers(ctx, presenceKey(rideID)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]types.ID, 0, len(members))
	for _, m := range members {
		out = append(out, types.ID(m))
	}
	return out, nil
}

// Clear drops the whole presence set, used when a ride is removed.
func (p *Presence) Clear(ctx context.Context, rideID types.ID) error {
	return p.rdb.Del(ctx, presenceKey(rideID)).Err()
}
