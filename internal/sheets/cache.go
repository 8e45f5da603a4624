package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/pkg/logging"
)

// CachedReader keeps worksheet reads in Redis for ttl. With a nil client or
// a non-positive ttl every call goes straight to the underlying reader, so
// spreadsheet edits apply on the next event.
type CachedReader struct {
	next      Reader
	redis     *redis.Client
	ttl       time.Duration
	namespace string
	logger    *logging.Logger
}

// NewCachedReader wraps next. namespace keeps keys of different spreadsheets apart.
func NewCachedReader(next Reader, client *redis.Client, ttl time.Duration, namespace string, logger *logging.Logger) *CachedReader {
	if next == nil {
		panic("sheets: cached reader needs an underlying reader")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CachedReader{
		next:      next,
		redis:     client,
		ttl:       ttl,
		namespace: namespace,
		logger:    logger,
	}
}

var _ Reader = (*CachedReader)(nil)

// Enabled reports whether reads are served from Redis.
func (c *CachedReader) Enabled() bool {
	return c != nil && c.redis != nil && c.ttl > 0
}

// Fetch returns cached rows when present, otherwise reads through and stores them.
// Redis failures are logged and never fail the read.
func (c *CachedReader) Fetch(ctx context.Context, worksheet string) ([][]string, error) {
	if !c.Enabled() {
		return c.next.Fetch(ctx, worksheet)
	}

	key := c.key(worksheet)
	data, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var rows [][]string
		if jsonErr := json.Unmarshal(data, &rows); jsonErr == nil {
			return rows, nil
		}
		c.logger.Warn("discarding undecodable cached worksheet", "worksheet", worksheet)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("worksheet cache read failed", "worksheet", worksheet, "error", err)
	}

	rows, err := c.next.Fetch(ctx, worksheet)
	if err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(rows)
	if err != nil {
		return rows, nil
	}
	if err := c.redis.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
		c.logger.Warn("worksheet cache write failed", "worksheet", worksheet, "error", err)
	}
	return rows, nil
}

// Invalidate drops the cached copies of the given worksheets.
func (c *CachedReader) Invalidate(ctx context.Context, worksheets ...string) error {
	if !c.Enabled() || len(worksheets) == 0 {
		return nil
	}
	keys := make([]string, 0, len(worksheets))
	for _, ws := range worksheets {
		keys = append(keys, c.key(ws))
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("sheets: invalidate cache: %w", err)
	}
	return nil
}

func (c *CachedReader) key(worksheet string) string {
	return fmt.Sprintf("sheets:%s:%s", c.namespace, worksheet)
}
