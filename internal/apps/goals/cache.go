package goals

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// KV is the key-value surface the resolution cache needs.
type KV interface {
	// Get returns found=false with a nil error on a miss.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
}

// ResolutionCache stores resolved targets per (user, date). Each user has a
// generation counter that is part of every entry key; bumping it orphans all
// of that user's entries, which then expire by TTL. A nil *ResolutionCache
// is a valid, disabled cache. KV failures are logged and treated as misses.
type ResolutionCache struct {
	kv  KV
	ttl time.Duration
}

func NewResolutionCache(kv KV, ttl time.Duration) *ResolutionCache {
	if kv == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ResolutionCache{kv: kv, ttl: ttl}
}

func generationKey(userID uuid.UUID) string {
	return "goals:gen:" + userID.String()
}

func entryKey(userID uuid.UUID, gen int64, date Date) string {
	return fmt.Sprintf("goals:eff:%s:%d:%s", userID, gen, date)
}

func (c *ResolutionCache) generation(ctx context.Context, userID uuid.UUID) (int64, error) {
	raw, found, err := c.kv.Get(ctx, generationKey(userID))
	if err != nil || !found {
		return 0, err
	}
	return strconv.ParseInt(string(raw), 10, 64)
}

// Lookup returns the cached resolution, if any, and the generation it was
// looked up under. Pass that generation to Store so a resolution computed
// before a concurrent invalidation lands under the orphaned generation.
// A negative generation means the result must not be stored.
func (c *ResolutionCache) Lookup(ctx context.Context, userID uuid.UUID, date Date) (*EffectiveGoals, int64, bool) {
	if c == nil {
		return nil, -1, false
	}
	gen, err := c.generation(ctx, userID)
	if err != nil {
		slog.Warn("goals cache generation read failed", "component", "goals", "user_id", userID.String(), "error", err)
		return nil, -1, false
	}
	raw, found, err := c.kv.Get(ctx, entryKey(userID, gen, date))
	if err != nil {
		slog.Warn("goals cache read failed", "component", "goals", "user_id", userID.String(), "error", err)
		return nil, gen, false
	}
	if !found {
		return nil, gen, false
	}
	var eff EffectiveGoals
	if err := json.Unmarshal(raw, &eff); err != nil {
		slog.Warn("goals cache entry undecodable", "component", "goals", "user_id", userID.String(), "error", err)
		return nil, gen, false
	}
	return &eff, gen, true
}

func (c *ResolutionCache) Store(ctx context.Context, userID uuid.UUID, gen int64, date Date, eff *EffectiveGoals) {
	if c == nil || gen < 0 {
		return
	}
	raw, err := json.Marshal(eff)
	if err != nil {
		return
	}
	if err := c.kv.Set(ctx, entryKey(userID, gen, date), raw, c.ttl); err != nil {
		slog.Warn("goals cache write failed", "component", "goals", "user_id", userID.String(), "error", err)
	}
}

// Invalidate drops every cached resolution for the user.
func (c *ResolutionCache) Invalidate(ctx context.Context, userID uuid.UUID) {
	if c == nil {
		return
	}
	if _, err := c.kv.Incr(ctx, generationKey(userID)); err != nil {
		slog.Error("goals cache invalidation failed", "component", "goals", "user_id", userID.String(), "error", err)
	}
}
