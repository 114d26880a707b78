package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/harshini-mantri/accident-prediction/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("WEATHER_TIMEOUT", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("GRID_POINTS", "")

	cfg, _ := config.Load()

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, config.SourceCSV, cfg.DatasetSource)
	assert.Equal(t, 5*time.Second, cfg.WeatherTimeout)
	assert.Equal(t, 10, cfg.GridPoints)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.True(t, cfg.RunMigrations)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATASET_SOURCE", "Postgres")
	t.Setenv("WEATHER_TIMEOUT", "750ms")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("GRID_POINTS", "25")
	t.Setenv("RUN_MIGRATIONS", "false")

	cfg, _ := config.Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, config.SourcePostgres, cfg.DatasetSource)
	assert.Equal(t, 750*time.Millisecond, cfg.WeatherTimeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 25, cfg.GridPoints)
	assert.False(t, cfg.RunMigrations)
}

func TestLoadIgnoresInvalidValues(t *testing.T) {
	t.Setenv("WEATHER_TIMEOUT", "soon")
	t.Setenv("GRID_POINTS", "-3")
	t.Setenv("RUN_MIGRATIONS", "maybe")

	cfg, _ := config.Load()

	assert.Equal(t, 5*time.Second, cfg.WeatherTimeout)
	assert.Equal(t, 10, cfg.GridPoints)
	assert.True(t, cfg.RunMigrations)
}
