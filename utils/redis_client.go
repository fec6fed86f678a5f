package utils

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/studyhub/missions/config"
)

var (
	redisClient *redis.Client
	redisOnce   sync.Once
)

// GetRedis returns a singleton Redis client based on loaded config, or nil
// when Redis is disabled or unreachable at first use.
func GetRedis() *redis.Client {
	redisOnce.Do(func() {
		cfg := config.Get()
		if !cfg.RedisEnabled {
			return
		}
		client := redis.NewClient(&redis.Options{
			Addr:         net.JoinHostPort(cfg.RedisHost, strconv.Itoa(cfg.RedisPort)),
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			DialTimeout:  3 * time.Second,
			ReadTimeout:  2 * time.Second,
			WriteTimeout: 2 * time.Second,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			Sugar.Warnf("redis unavailable at %s, falling back to in-process locks and no cache: %v", client.Options().Addr, err)
			_ = client.Close()
			return
		}
		redisClient = client
	})
	return redisClient
}
