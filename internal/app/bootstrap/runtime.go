package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/config"
	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/sheets"
	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available; worksheet cache disabled", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildTableReader puts the optional Redis cache in front of the spreadsheet.
// Cache keys are namespaced by spreadsheet id.
func BuildTableReader(client *sheets.Client, redisClient *redis.Client, cfg *appconfig.Config, logger *logging.Logger) *sheets.CachedReader {
	reader := sheets.NewCachedReader(client, redisClient, cfg.TableCacheTTL, client.SpreadsheetID(), logger)
	if reader.Enabled() {
		logger.Info("worksheet cache enabled", "ttl", cfg.TableCacheTTL.String())
	}
	return reader
}
