// Package calls tracks live calls in Redis so the webhook layer can refuse
// new calls at capacity and operators can see what is on the line. Unlike
// the session store, nothing here is durable state: every entry expires on
// its own if the hangup webhook never lands.
package calls

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/lhawkeye71/ai-phone-agent/internal/observability/metrics"
)

const (
	keyPrefix    = "call:"
	activeSetKey = "active_calls"
)

// Registry is the live-call tracker. A nil Redis client turns every method
// into a no-op, so the service keeps answering calls when Redis is down.
type Registry struct {
	rdb *redis.Client
	ttl time.Duration
	max int
}

// NewRegistry connects to Redis. When Redis is unreachable the registry
// degrades to disabled rather than failing startup.
func NewRegistry(addr, password string, db, maxActive int, ttl time.Duration) *Registry {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", addr).Msg("redis unreachable, call registry disabled")
		client = nil
	}

	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Registry{rdb: client, ttl: ttl, max: maxActive}
}

// Track records a newly answered call.
func (r *Registry) Track(ctx context.Context, callID, callerAddress string) {
	if r == nil || r.rdb == nil {
		return
	}
	r.rdb.HSet(ctx, keyPrefix+callID, map[string]interface{}{
		"caller":      callerAddress,
		"answered_at": time.Now().UTC().Format(time.RFC3339),
	})
	r.rdb.SAdd(ctx, activeSetKey, callID)
	r.rdb.Expire(ctx, keyPrefix+callID, r.ttl)
	metrics.DefaultMetrics.SetActiveCalls(r.ActiveCount(ctx))
}

// Touch refreshes a call's TTL after another turn.
func (r *Registry) Touch(ctx context.Context, callID string) {
	if r == nil || r.rdb == nil {
		return
	}
	r.rdb.Expire(ctx, keyPrefix+callID, r.ttl)
}

// End removes a finished call.
func (r *Registry) End(ctx context.Context, callID string) {
	if r == nil || r.rdb == nil {
		return
	}
	r.rdb.Del(ctx, keyPrefix+callID)
	r.rdb.SRem(ctx, activeSetKey, callID)
	metrics.DefaultMetrics.SetActiveCalls(r.ActiveCount(ctx))
}

// ActiveCount returns the number of tracked live calls.
func (r *Registry) ActiveCount(ctx context.Context) int {
	if r == nil || r.rdb == nil {
		return 0
	}
	n, err := r.rdb.SCard(ctx, activeSetKey).Result()
	if err != nil {
		return 0
	}
	return int(n)
}

// AtCapacity reports whether new calls should be turned away.
func (r *Registry) AtCapacity(ctx context.Context) bool {
	if r == nil || r.rdb == nil || r.max <= 0 {
		return false
	}
	return r.ActiveCount(ctx) >= r.max
}

// Sweep drops set members whose call hash has already expired, which
// happens when a call ends without a hangup webhook.
func (r *Registry) Sweep(ctx context.Context) {
	if r == nil || r.rdb == nil {
		return
	}
	ids, err := r.rdb.SMembers(ctx, activeSetKey).Result()
	if err != nil {
		return
	}
	for _, id := range ids {
		n, err := r.rdb.Exists(ctx, keyPrefix+id).Result()
		if err == nil && n == 0 {
			r.rdb.SRem(ctx, activeSetKey, id)
		}
	}
	metrics.DefaultMetrics.SetActiveCalls(r.ActiveCount(ctx))
}

// StartSweeper prunes stale registry entries until ctx is done.
func (r *Registry) StartSweeper(ctx context.Context) {
	if r == nil || r.rdb == nil {
		return
	}
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

func (r *Registry) Close() error {
	if r == nil || r.rdb == nil {
		return nil
	}
	return r.rdb.Close()
}
