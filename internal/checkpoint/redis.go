package checkpoint

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"attendance-sync/internal/timeutil"
)

// RedisStore 基于 Redis 的检查点存储
// key 形如 attendance:checkpoint:<device_id>，值为统一格式的时间文本
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	logger    *zap.Logger
}

// NewRedisStore 创建 Redis 检查点存储
func NewRedisStore(client *redis.Client, keyPrefix string, logger *zap.Logger) *RedisStore {
	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
		logger:    logger,
	}
}

func (s *RedisStore) key(deviceID string) string {
	return s.keyPrefix + deviceID
}

// Load 读取设备检查点，缺失/损坏时回退到默认值
func (s *RedisStore) Load(ctx context.Context, deviceID string) time.Time {
	val, err := s.client.Get(ctx, s.key(deviceID)).Result()
	if err == redis.Nil {
		cp := defaultCheckpoint()
		s.logger.Info("No checkpoint found, starting from default",
			zap.String("device_id", deviceID),
			zap.String("checkpoint", timeutil.Format(cp)),
		)
		return cp
	}
	if err != nil {
		cp := defaultCheckpoint()
		s.logger.Warn("Failed to read checkpoint, falling back to default",
			zap.String("device_id", deviceID),
			zap.Error(err),
		)
		return cp
	}

	cp, err := timeutil.Parse(val)
	if err != nil {
		fallback := defaultCheckpoint()
		s.logger.Warn("Corrupt checkpoint value, falling back to default",
			zap.String("device_id", deviceID),
			zap.String("value", val),
			zap.Error(err),
		)
		return fallback
	}
	return cp
}

// Save 持久化设备检查点
func (s *RedisStore) Save(ctx context.Context, deviceID string, cp time.Time) error {
	return s.client.Set(ctx, s.key(deviceID), timeutil.Format(cp), 0).Err()
}
