package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"attendance-sync/internal/config"
	"attendance-sync/internal/logger"
	"attendance-sync/internal/service"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化Logger
	zapLogger, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "attendance-sync")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting attendance-sync service",
		zap.String("registry_url", cfg.Registry.URL),
		zap.String("backend_url", cfg.Backend.URL),
		zap.Int("poll_interval", cfg.Sync.PollInterval),
		zap.String("checkpoint_backend", cfg.Sync.CheckpointBackend),
	)

	// 创建服务
	syncService, err := service.NewSyncService(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create sync service", zap.Error(err))
	}

	// 启动服务
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := syncService.Start(ctx); err != nil {
			zapLogger.Fatal("Failed to start sync service", zap.Error(err))
		}
	}()

	// 等待中断信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	zapLogger.Info("Received signal, shutting down", zap.String("signal", sig.String()))

	// 优雅关闭
	cancel()
	if err := syncService.Stop(ctx); err != nil {
		zapLogger.Error("Error during shutdown", zap.Error(err))
	}

	zapLogger.Info("Service stopped")
}
