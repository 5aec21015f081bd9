package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options connection settings of the task queue redis
type Options struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
	// ReadTimeout 0 keeps the go-redis default
	ReadTimeout time.Duration
}

// NewClient Redis 클라이언트 생성 후 연결 확인
func NewClient(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%d", opts.Host, opts.Port),
		Password:    opts.Password,
		DB:          opts.DB,
		PoolSize:    opts.PoolSize,
		ReadTimeout: opts.ReadTimeout,
	})

	// 연결 테스트
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}
