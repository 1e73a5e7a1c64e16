package libs

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedis connects from a URL or an address. It returns nil when neither is
// set or the server does not answer, and callers fall back to the database.
func NewRedis(ctx context.Context, url, addr, password string, logger *zap.Logger) *redis.Client {
	var opt *redis.Options
	switch {
	case url != "":
		parsed, err := redis.ParseURL(url)
		if err != nil {
			logger.Warn("failed to parse redis url, running without redis", zap.Error(err))
			return nil
		}
		opt = parsed
	case addr != "":
		opt = &redis.Options{Addr: addr, Password: password, DB: 0}
	default:
		return nil
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis connection failed, running without redis", zap.Error(err))
		_ = client.Close()
		return nil
	}

	logger.Info("redis connected", zap.String("addr", opt.Addr))
	return client
}
