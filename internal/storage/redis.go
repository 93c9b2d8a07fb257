package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"resume-matcher-go/internal/config"
	"resume-matcher-go/internal/constants"
)

// ErrNotFound 键不存在时返回，封装底层的 redis.Nil
var ErrNotFound = redis.Nil

// Redis 键值存储适配器，承载JD向量缓存和解析文本去重记录
type Redis struct {
	Client *redis.Client
	config *config.RedisConfig
}

// NewRedisAdapter 创建Redis客户端连接
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	opt := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		// 连接池设置
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		// 超时设置
		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,

		// 重试设置
		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: time.Duration(cfg.MinRetryBackoffMS) * time.Millisecond,
		MaxRetryBackoff: time.Duration(cfg.MaxRetryBackoffMS) * time.Millisecond,

		// 连接生命周期
		ConnMaxLifetime: time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute,
		ConnMaxIdleTime: time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute,
	}

	client := redis.NewClient(opt)

	// 添加OpenTelemetry钩子，记录所有Redis操作
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("failed to instrument Redis with OpenTelemetry: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	return &Redis{
		Client: client,
		config: cfg,
	}, nil
}

// Close 关闭Redis连接
func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Ping 检查Redis连接
func (r *Redis) Ping(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	return r.Client.Ping(ctx).Err()
}

// GetMD5ExpireDuration 返回配置的MD5去重记录过期时间
func (r *Redis) GetMD5ExpireDuration() time.Duration {
	days := r.config.MD5RecordExpireDays
	if days <= 0 {
		return constants.TextMD5RecordDuration
	}
	return time.Duration(days) * 24 * time.Hour
}

// GetJobVector 按签名哈希读取缓存的JD向量。
// 第二个返回值表示缓存是否命中，键不存在不视为错误。
func (r *Redis) GetJobVector(ctx context.Context, signatureHash string) ([]float64, bool, error) {
	if r.Client == nil {
		return nil, false, fmt.Errorf("redis client is not initialized")
	}

	key := fmt.Sprintf(constants.KeyJobVector, signatureHash)
	payload, err := r.Client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("读取JD向量缓存失败: %w", err)
	}

	var vector []float64
	if err := json.Unmarshal(payload, &vector); err != nil {
		// 损坏的缓存当作未命中处理，写入方会覆盖
		return nil, false, fmt.Errorf("解析JD向量缓存失败: %w", err)
	}
	return vector, true, nil
}

// SetJobVector 以JSON负载写入JD向量缓存，带固定有效期
func (r *Redis) SetJobVector(ctx context.Context, signatureHash string, vector []float64) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}

	payload, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("序列化JD向量失败: %w", err)
	}

	key := fmt.Sprintf(constants.KeyJobVector, signatureHash)
	return r.Client.Set(ctx, key, payload, constants.JobVectorCacheDuration).Err()
}

// CheckAndAddParsedTextMD5 记录解析文本的MD5，返回true表示首次出现。
// 用SETNX保证检查和写入的原子性。
func (r *Redis) CheckAndAddParsedTextMD5(ctx context.Context, md5Hex string) (bool, error) {
	if r.Client == nil {
		return false, fmt.Errorf("redis client is not initialized")
	}

	key := fmt.Sprintf(constants.KeyParsedTextMD5, md5Hex)
	fresh, err := r.Client.SetNX(ctx, key, 1, r.GetMD5ExpireDuration()).Result()
	if err != nil {
		return false, fmt.Errorf("写入解析文本MD5记录失败: %w", err)
	}
	return fresh, nil
}
