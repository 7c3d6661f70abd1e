package checkpoint

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"attendance-sync/internal/timeutil"
)

// PostgresStore 基于 PostgreSQL 的检查点存储
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresStore 创建 Postgres 检查点存储
func NewPostgresStore(db *sql.DB, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: logger,
	}
}

// EnsureSchema 建表（幂等）
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS sync_checkpoints (
			device_id  TEXT PRIMARY KEY,
			checkpoint TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to ensure sync_checkpoints table: %w", err)
	}
	return nil
}

// Load 读取设备检查点，缺失/损坏时回退到默认值
func (s *PostgresStore) Load(ctx context.Context, deviceID string) time.Time {
	var val string
	err := s.db.QueryRowContext(ctx,
		`SELECT checkpoint FROM sync_checkpoints WHERE device_id = $1`,
		deviceID,
	).Scan(&val)
	if err == sql.ErrNoRows {
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

// Save 持久化设备检查点（upsert）
func (s *PostgresStore) Save(ctx context.Context, deviceID string, cp time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_checkpoints (device_id, checkpoint)
		VALUES ($1, $2)
		ON CONFLICT (device_id) DO UPDATE
		SET checkpoint = EXCLUDED.checkpoint, updated_at = NOW()
	`, deviceID, timeutil.Format(cp))
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}
