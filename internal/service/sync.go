package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"attendance-sync/internal/checkpoint"
	"attendance-sync/internal/config"
	"attendance-sync/internal/database"
	"attendance-sync/internal/device"
	"attendance-sync/internal/forwarder"
	"attendance-sync/internal/models"
	"attendance-sync/internal/redisutil"
	"attendance-sync/internal/registry"
	"attendance-sync/internal/timeutil"
)

// DeviceFetcher 设备事件抓取
type DeviceFetcher interface {
	FetchEvents(ctx context.Context, device models.Device, window models.SyncWindow) ([]models.AcsEvent, error)
}

// RecordForwarder 压缩记录上报
type RecordForwarder interface {
	Forward(ctx context.Context, device models.Device, records models.DailyRecords) error
}

// DeviceRegistry 设备列表来源
type DeviceRegistry interface {
	FetchDevices(ctx context.Context) ([]models.Device, error)
}

// SyncService 考勤同步服务
// 固定间隔轮询设备集合，逐台执行同步周期；单台设备的失败只影响它
// 自己，进程除收到终止信号外不退出。
type SyncService struct {
	config      *config.Config
	logger      *zap.Logger
	db          *sql.DB
	redisClient *redis.Client

	store     checkpoint.Store
	fetcher   DeviceFetcher
	forwarder RecordForwarder
	registry  DeviceRegistry
	devices   []models.Device

	now func() time.Time
}

// NewSyncService 创建同步服务
func NewSyncService(cfg *config.Config, logger *zap.Logger) (*SyncService, error) {
	s := &SyncService{
		config: cfg,
		logger: logger,
		now:    timeutil.Now,
	}

	// 初始化检查点存储
	switch cfg.Sync.CheckpointBackend {
	case "postgres":
		db, err := database.NewPostgresDB(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		store := checkpoint.NewPostgresStore(db, logger)
		if err := store.EnsureSchema(context.Background()); err != nil {
			database.Close(db)
			return nil, err
		}
		s.db = db
		s.store = store
	default:
		redisClient := redisutil.NewClient(&cfg.Redis)
		if err := redisutil.Ping(context.Background(), redisClient); err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		s.redisClient = redisClient
		s.store = checkpoint.NewRedisStore(redisClient, cfg.Sync.CheckpointKeyPrefix, logger)
	}

	timeout := time.Duration(cfg.Sync.DeviceTimeout) * time.Second
	s.fetcher = device.NewClient(cfg, logger)
	s.forwarder = forwarder.New(cfg.Backend.URL, timeout, logger)
	s.registry = registry.NewClient(cfg.Registry.URL, timeout, logger)

	return s, nil
}

// Start 启动轮询循环（阻塞直到 ctx 取消）
func (s *SyncService) Start(ctx context.Context) error {
	interval := time.Duration(s.config.Sync.PollInterval) * time.Second

	s.logger.Info("Starting attendance sync loop",
		zap.Duration("interval", interval),
		zap.String("checkpoint_backend", s.config.Sync.CheckpointBackend),
		zap.String("checkpoint_granularity", string(s.config.Sync.CheckpointGranularity)),
	)

	// 首次立即执行一轮
	s.refreshDevices(ctx)
	s.runAll(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			// 注册列表为空时每个周期重试拉取，而不是退出
			if len(s.devices) == 0 {
				s.refreshDevices(ctx)
			}
			s.runAll(ctx)
		}
	}
}

// Stop 释放连接
func (s *SyncService) Stop(ctx context.Context) error {
	s.logger.Info("Stopping attendance sync service")

	if s.redisClient != nil {
		if err := redisutil.Close(s.redisClient); err != nil {
			s.logger.Error("Error closing redis client", zap.Error(err))
		}
	}
	if s.db != nil {
		if err := database.Close(s.db); err != nil {
			s.logger.Error("Error closing database", zap.Error(err))
		}
	}
	return nil
}

// refreshDevices 拉取设备列表
func (s *SyncService) refreshDevices(ctx context.Context) {
	devices, err := s.registry.FetchDevices(ctx)
	if err != nil {
		s.logger.Error("Failed to fetch device registry, will retry next cycle", zap.Error(err))
		return
	}
	if len(devices) == 0 {
		s.logger.Warn("Device registry returned no devices, idling until next cycle")
	}
	s.devices = devices
}

// runAll 对设备集合逐台执行同步周期
func (s *SyncService) runAll(ctx context.Context) {
	for _, dev := range s.devices {
		if ctx.Err() != nil {
			return
		}
		s.runDeviceSafely(ctx, dev)
	}
}

// runDeviceSafely 单台设备的周期边界：错误和 panic 都不外泄
func (s *SyncService) runDeviceSafely(ctx context.Context, dev models.Device) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Sync cycle panicked",
				zap.String("device_id", dev.Key()),
				zap.Any("panic", r),
			)
		}
	}()

	if err := s.runCycle(ctx, dev); err != nil {
		s.logger.Error("Sync cycle failed",
			zap.String("device_id", dev.Key()),
			zap.String("tenant_id", dev.TenantID),
			zap.Error(err),
		)
	}
}
