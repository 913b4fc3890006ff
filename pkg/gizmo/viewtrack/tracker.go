// Package viewtrack buffers resource view increments in Redis and flushes
// them into the repository periodically. View counts are advisory: a lost
// increment under crash costs accuracy, never correctness.
package viewtrack

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/HmmOrange/gizmo-backend/pkg/gizmo"
)

const keyPrefix = "gizmo:views:"

// Tracker implements gizmo.ViewCounter on Redis. Keys are shared across
// instances, so a flush on any instance drains the counters of all of them.
type Tracker struct {
	rdb    *redis.Client
	repo   gizmo.Repository
	logger *zap.Logger
}

// New creates a tracker. A nil logger falls back to a no-op logger.
func New(rdb *redis.Client, repo gizmo.Repository, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{rdb: rdb, repo: repo, logger: logger}
}

func viewKey(kind gizmo.ResourceKind, id uuid.UUID) string {
	return fmt.Sprintf("%s%s:%s", keyPrefix, kind, id)
}

// Bump increments the buffered counter for a resource.
func (t *Tracker) Bump(ctx context.Context, kind gizmo.ResourceKind, id uuid.UUID) error {
	return t.rdb.Incr(ctx, viewKey(kind, id)).Err()
}

// Flush drains all buffered counters into the repository. Failures on
// individual resources are logged and skipped; the increments for a vanished
// resource are dropped.
func (t *Tracker) Flush(ctx context.Context) error {
	iter := t.rdb.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()

		val, err := t.rdb.GetDel(ctx, key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue // drained by a concurrent flush
			}
			t.logger.Warn("view counter read failed", zap.String("key", key), zap.Error(err))
			continue
		}

		id, delta, err := parseEntry(key, val)
		if err != nil {
			t.logger.Warn("malformed view counter entry", zap.String("key", key), zap.Error(err))
			continue
		}
		if delta == 0 {
			continue
		}

		if err := t.repo.AddViews(ctx, id, delta); err != nil {
			if errors.Is(err, gizmo.ErrResourceNotFound) {
				continue
			}
			t.logger.Warn("view counter flush failed", zap.String("key", key), zap.Error(err))
		}
	}
	return iter.Err()
}

// Run flushes on the given interval until the context is cancelled, with a
// final flush on the way out.
func (t *Tracker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := t.Flush(flushCtx); err != nil {
				t.logger.Warn("final view counter flush failed", zap.Error(err))
			}
			cancel()
			return
		case <-ticker.C:
			if err := t.Flush(ctx); err != nil {
				t.logger.Warn("view counter flush failed", zap.Error(err))
			}
		}
	}
}

func parseEntry(key, val string) (uuid.UUID, int64, error) {
	rest := strings.TrimPrefix(key, keyPrefix)
	_, rawID, ok := strings.Cut(rest, ":")
	if !ok {
		return uuid.Nil, 0, fmt.Errorf("missing kind separator")
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, 0, err
	}
	delta, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return uuid.Nil, 0, err
	}
	return id, delta, nil
}
