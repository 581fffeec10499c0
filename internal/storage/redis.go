package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AayushPaigwar/resume-sync-ai/internal/config"
	"github.com/AayushPaigwar/resume-sync-ai/internal/constants"
	"github.com/AayushPaigwar/resume-sync-ai/internal/tracing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
)

// ErrNotFound key 不存在
var ErrNotFound = redis.Nil

// statusTTL 处理进度的保留时间
const statusTTL = 24 * time.Hour

// releaseScript 只有持有者可以删除锁
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
    return redis.call("del", KEYS[1])
else
    return 0
end
`)

// Redis 单飞锁和处理进度
type Redis struct {
	Client *redis.Client
	config *config.RedisConfig
}

// ProcessingStatus 最近一次状态转换
type ProcessingStatus struct {
	State     string    `json:"state"`
	Label     string    `json:"label"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRedisAdapter 创建Redis连接并注册追踪钩子
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
		MaxRetries:   cfg.MaxRetries,
	})

	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("failed to instrument Redis with OpenTelemetry: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	return &Redis{Client: client, config: cfg}, nil
}

// NewRedisWithClient 使用已有客户端，测试使用
func NewRedisWithClient(client *redis.Client) *Redis {
	return &Redis{Client: client, config: &config.RedisConfig{}}
}

// Close closes the Redis client connection
func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Ping checks the Redis connection
func (r *Redis) Ping(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	return r.Client.Ping(ctx).Err()
}

// AcquireLock 尝试获取一个分布式锁，被占用时返回空字符串
func (r *Redis) AcquireLock(ctx context.Context, lockKey string, expiration time.Duration) (string, error) {
	if r.Client == nil {
		return "", fmt.Errorf("redis client is not initialized")
	}
	ctx, span := tracer.Start(ctx, "redis.AcquireLock")
	defer span.End()
	span.SetAttributes(attribute.String("redis.key", lockKey))

	lockValue := uuid.NewString()
	ok, err := r.Client.SetNX(ctx, lockKey, lockValue, expiration).Result()
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return "", err
	}
	span.SetAttributes(attribute.Bool("redis.lock.acquired", ok))
	if !ok {
		return "", nil
	}
	return lockValue, nil
}

// ReleaseLock 释放一个分布式锁，使用Lua脚本保证原子性
func (r *Redis) ReleaseLock(ctx context.Context, lockKey string, lockValue string) (bool, error) {
	if r.Client == nil {
		return false, fmt.Errorf("redis client is not initialized")
	}
	released, err := releaseScript.Run(ctx, r.Client, []string{lockKey}, lockValue).Int64()
	if err != nil {
		return false, err
	}
	return released == 1, nil
}

// SaveStatus 记录最近一次状态转换
func (r *Redis) SaveStatus(ctx context.Context, resumeID, state, label string) error {
	key := fmt.Sprintf(constants.KeyResumeProcessingStatus, resumeID)
	pipe := r.Client.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"state":      state,
		"label":      label,
		"updated_at": time.Now().UTC().Format(time.RFC3339Nano),
	})
	pipe.Expire(ctx, key, statusTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// GetStatus 读取处理进度，不存在时返回 ErrNotFound
func (r *Redis) GetStatus(ctx context.Context, resumeID string) (*ProcessingStatus, error) {
	key := fmt.Sprintf(constants.KeyResumeProcessingStatus, resumeID)
	fields, err := r.Client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	status := &ProcessingStatus{State: fields["state"], Label: fields["label"]}
	if ts, err := time.Parse(time.RFC3339Nano, fields["updated_at"]); err == nil {
		status.UpdatedAt = ts
	}
	return status, nil
}

// IsNotFound 判断是否为 key 不存在
func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}
