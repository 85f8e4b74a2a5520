package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Environment variables read by LoadSettings.
const (
	EnvLogLevel    = "ECIBRIDGE_LOG_LEVEL"
	EnvMonitorPort = "ECIBRIDGE_MONITOR_PORT"
	EnvRecord      = "ECIBRIDGE_RECORD"
)

// Settings are the defaults of a run. Command-line flags override them.
type Settings struct {
	LogLevel    logrus.Level
	MonitorPort int
	RecordPath  string
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		LogLevel: logrus.InfoLevel,
	}
}

// LoadSettings loads the given dotenv files, skipping missing ones, and reads
// the ECIBRIDGE_* variables. Variables already set in the environment win
// over the files.
func LoadSettings(envFiles ...string) (Settings, error) {
	for _, f := range envFiles {
		err := godotenv.Load(f)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Settings{}, fmt.Errorf("config: loading %s: %w", f, err)
		}
	}

	s := DefaultSettings()

	if v := os.Getenv(EnvLogLevel); v != "" {
		level, err := logrus.ParseLevel(v)
		if err != nil {
			return Settings{}, fmt.Errorf("config: %s: %w", EnvLogLevel, err)
		}

		s.LogLevel = level
	}

	if v := os.Getenv(EnvMonitorPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Settings{}, fmt.Errorf("config: %s: %w", EnvMonitorPort, err)
		}

		s.MonitorPort = port
	}

	if v := os.Getenv(EnvRecord); v != "" {
		s.RecordPath = v
	}

	return s, nil
}
