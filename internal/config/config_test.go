package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("APP_PORT", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("SWEEP_INTERVAL", "")
	t.Setenv("SWEEP_BATCH", "")
	t.Setenv("ALLOWED_ORIGINS", "")

	cfg := LoadConfig()

	assert.Equal(t, "5000", cfg.AppPort)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.Equal(t, 500, cfg.SweepBatch)
	assert.Empty(t, cfg.AllowedOrigins)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SWEEP_INTERVAL", "15s")
	t.Setenv("SWEEP_BATCH", "25")
	t.Setenv("ALLOWED_ORIGINS", "https://app.example.com, ,https://admin.example.com")
	t.Setenv("IS_PROD", "true")

	cfg := LoadConfig()

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 15*time.Second, cfg.SweepInterval)
	assert.Equal(t, 25, cfg.SweepBatch)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.AllowedOrigins)
	assert.True(t, cfg.IsProd)
}

func TestLoadConfig_BadDurationFallsBack(t *testing.T) {
	t.Setenv("SWEEP_INTERVAL", "soon")
	t.Setenv("SWEEP_BATCH", "-3")

	cfg := LoadConfig()

	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.Equal(t, 500, cfg.SweepBatch)
}

func TestSetupLogging(t *testing.T) {
	defer logrus.SetLevel(logrus.InfoLevel)

	SetupLogging(&Config{LogLevel: "debug"})
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())

	SetupLogging(&Config{LogLevel: "chatty", IsProd: true})
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logrus.StandardLogger().Formatter)
	logrus.SetFormatter(&logrus.TextFormatter{})
}
