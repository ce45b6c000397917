package config

import (
	"os" // Log output

	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// SetupLogging configures the package-level logrus logger. Production logs
// are JSON, development logs are text with full timestamps.
func SetupLogging(cfg *Config) {
	logrus.SetOutput(os.Stdout)
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.WithField("level", cfg.LogLevel).Warn("Unknown LOG_LEVEL, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
