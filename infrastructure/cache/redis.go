package cache

import (
	"context"
	"time"

	"social-reward-engine/infrastructure/logger"

	"github.com/redis/go-redis/v9"
)

// NewCache connects to redis and verifies the connection with a ping.
func NewCache(ctx context.Context, addr, username, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Username:     username,
		Password:     password,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.GetLogger().WithField("addr", addr).WithField("error", err).Warn("Redis ping failed")
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
