package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"attendance-sync/internal/models"
	"attendance-sync/internal/timeutil"
)

// DefaultFilters 默认查询的事件类别
// 5:* 覆盖不区分 minor 的固件变体，其余为签到/签退/人脸识别的具体码对
const DefaultFilters = "5:*,5:38,5:39,5:75"

// Config 考勤同步服务配置
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig

	// 设备注册 API（进程启动时拉取设备列表）
	Registry struct {
		URL string
	}

	// 后端上报 API
	Backend struct {
		URL string
	}

	// 同步策略
	Sync struct {
		PollInterval  int                  // 轮询间隔（秒）
		Filters       []models.EventFilter // 查询的事件类别
		SliceMinutes  int                  // 子窗口大小（分钟）
		MaxResults    int                  // 单页最大结果数（设备端限制）
		DeviceTimeout int                  // 单次请求超时（秒）

		// 检查点存储
		CheckpointBackend     string // "redis" 或 "postgres"
		CheckpointKeyPrefix   string // redis key 前缀
		CheckpointGranularity timeutil.Granularity
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := &Config{}

	// 从环境变量加载（默认值）
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "attendance")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0

	cfg.Registry.URL = getEnv("REGISTRY_URL", "http://localhost:8000/api/device/devices/")
	cfg.Backend.URL = getEnv("BACKEND_URL", "http://localhost:8000/api/device/post-device-data")

	cfg.Sync.PollInterval = getEnvInt("POLL_INTERVAL", 60)
	cfg.Sync.SliceMinutes = getEnvInt("SLICE_MINUTES", 60)
	cfg.Sync.MaxResults = getEnvInt("MAX_RESULTS", 500)
	cfg.Sync.DeviceTimeout = getEnvInt("DEVICE_TIMEOUT", 15)

	filters, err := ParseFilters(getEnv("ATTENDANCE_FILTERS", DefaultFilters))
	if err != nil {
		return nil, fmt.Errorf("invalid ATTENDANCE_FILTERS: %w", err)
	}
	cfg.Sync.Filters = filters

	cfg.Sync.CheckpointBackend = getEnv("CHECKPOINT_BACKEND", "redis")
	if cfg.Sync.CheckpointBackend != "redis" && cfg.Sync.CheckpointBackend != "postgres" {
		return nil, fmt.Errorf("unsupported CHECKPOINT_BACKEND: %s", cfg.Sync.CheckpointBackend)
	}
	cfg.Sync.CheckpointKeyPrefix = getEnv("CHECKPOINT_KEY_PREFIX", "attendance:checkpoint:")

	granularity := timeutil.Granularity(getEnv("CHECKPOINT_GRANULARITY", string(timeutil.GranularityExact)))
	if !granularity.Valid() {
		return nil, fmt.Errorf("unsupported CHECKPOINT_GRANULARITY: %s", granularity)
	}
	cfg.Sync.CheckpointGranularity = granularity

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

// ParseFilters 解析事件类别过滤器列表
// 格式："major:minor" 逗号分隔，minor 为 "*" 时不限定，如 "5:*,5:38,5:39"
func ParseFilters(s string) ([]models.EventFilter, error) {
	var filters []models.EventFilter
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		pieces := strings.Split(part, ":")
		if len(pieces) != 2 {
			return nil, fmt.Errorf("filter %q is not in major:minor form", part)
		}
		major, err := strconv.Atoi(strings.TrimSpace(pieces[0]))
		if err != nil {
			return nil, fmt.Errorf("filter %q has invalid major: %w", part, err)
		}
		minor := models.AnyMinor
		if m := strings.TrimSpace(pieces[1]); m != "*" {
			minor, err = strconv.Atoi(m)
			if err != nil {
				return nil, fmt.Errorf("filter %q has invalid minor: %w", part, err)
			}
		}
		filters = append(filters, models.EventFilter{Major: major, Minor: minor})
	}
	if len(filters) == 0 {
		return nil, fmt.Errorf("no filters configured")
	}
	return filters, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
	}
	return defaultValue
}
