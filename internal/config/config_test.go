package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendance-sync/internal/models"
	"attendance-sync/internal/timeutil"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 60, cfg.Sync.PollInterval)
	assert.Equal(t, 60, cfg.Sync.SliceMinutes)
	assert.Equal(t, 500, cfg.Sync.MaxResults)
	assert.Equal(t, "redis", cfg.Sync.CheckpointBackend)
	assert.Equal(t, timeutil.GranularityExact, cfg.Sync.CheckpointGranularity)
	assert.Equal(t, "attendance:checkpoint:", cfg.Sync.CheckpointKeyPrefix)
	assert.Len(t, cfg.Sync.Filters, 4)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("CHECKPOINT_BACKEND", "etcd")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsUnknownGranularity(t *testing.T) {
	t.Setenv("CHECKPOINT_GRANULARITY", "minute")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "10")
	t.Setenv("CHECKPOINT_BACKEND", "postgres")
	t.Setenv("CHECKPOINT_GRANULARITY", "day")
	t.Setenv("ATTENDANCE_FILTERS", "5:38")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Sync.PollInterval)
	assert.Equal(t, "postgres", cfg.Sync.CheckpointBackend)
	assert.Equal(t, timeutil.GranularityDay, cfg.Sync.CheckpointGranularity)
	assert.Equal(t, []models.EventFilter{{Major: 5, Minor: 38}}, cfg.Sync.Filters)
}

func TestParseFilters(t *testing.T) {
	filters, err := ParseFilters("5:*, 5:38,5:39")
	require.NoError(t, err)
	assert.Equal(t, []models.EventFilter{
		{Major: 5, Minor: models.AnyMinor},
		{Major: 5, Minor: 38},
		{Major: 5, Minor: 39},
	}, filters)
}

func TestParseFiltersErrors(t *testing.T) {
	_, err := ParseFilters("")
	assert.Error(t, err)

	_, err = ParseFilters("5")
	assert.Error(t, err)

	_, err = ParseFilters("five:38")
	assert.Error(t, err)

	_, err = ParseFilters("5:thirtyeight")
	assert.Error(t, err)
}
