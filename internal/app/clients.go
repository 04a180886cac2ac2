package app

import (
	"context"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/dxplatform-backend/internal/clients/redis"
	"github.com/yungbote/dxplatform-backend/internal/config"
	"github.com/yungbote/dxplatform-backend/internal/platform/logger"
)

type Clients struct {
	Redis *goredis.Client
}

func wireClients(ctx context.Context, log *logger.Logger, cfg config.Config) (Clients, error) {
	log.Info("Wiring clients...")

	// Redis backs the detection cache only.
	if strings.EqualFold(cfg.Detection.CacheBackend, "redis") {
		rdb, err := redis.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis: %w", err)
		}
		return Clients{Redis: rdb}, nil
	}
	return Clients{}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
