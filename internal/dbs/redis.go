package dbs

import (
	"context"

	"github.com/redis/go-redis/v9"
)

var RedisClient *redis.Client

func InitRedis(ctx context.Context, addr string, db int) error {
	RedisClient = redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	_, err := RedisClient.Ping(ctx).Result()
	return err
}

func CloseRedis() {
	if RedisClient != nil {
		_ = RedisClient.Close()
	}
}
