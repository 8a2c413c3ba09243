package common

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

var (
	globalLogger arbor.ILogger
	loggerMutex  sync.RWMutex
)

// GetLogger returns the global logger instance. If InitLogger hasn't run
// yet it falls back to a console logger so early startup code never nil
// panics.
func GetLogger() arbor.ILogger {
	loggerMutex.RLock()
	if globalLogger != nil {
		loggerMutex.RUnlock()
		return globalLogger
	}
	loggerMutex.RUnlock()

	loggerMutex.Lock()
	defer loggerMutex.Unlock()

	if globalLogger == nil {
		globalLogger = arbor.NewLogger().WithConsoleWriter(writerConfig(nil, models.LogWriterTypeConsole, ""))
		globalLogger.Warn().Msg("using fallback logger - InitLogger should run during startup")
	}
	return globalLogger
}

// InitLogger stores logger as the global singleton.
func InitLogger(logger arbor.ILogger) {
	loggerMutex.Lock()
	defer loggerMutex.Unlock()
	globalLogger = logger
}

// SetupLogger configures and initializes the global logger from cfg.
func SetupLogger(cfg *Config) arbor.ILogger {
	logger := arbor.NewLogger()

	hasFile, hasStdout := false, false
	for _, o := range cfg.Logging.Output {
		if o == "file" {
			hasFile = true
		}
		if o == "stdout" || o == "console" {
			hasStdout = true
		}
	}

	if hasFile {
		execPath, err := os.Executable()
		if err != nil {
			logger = logger.WithConsoleWriter(writerConfig(cfg, models.LogWriterTypeConsole, ""))
			logger.Warn().Err(err).Msg("failed to resolve executable path, falling back to console logging")
		} else {
			logsDir := filepath.Join(filepath.Dir(execPath), "logs")
			if err := os.MkdirAll(logsDir, 0755); err != nil {
				logger = logger.WithConsoleWriter(writerConfig(cfg, models.LogWriterTypeConsole, ""))
				logger.Warn().Err(err).Str("logs_dir", logsDir).Msg("failed to create logs directory")
			} else {
				logger = logger.WithFileWriter(writerConfig(cfg, models.LogWriterTypeFile, filepath.Join(logsDir, "hubscout.log")))
			}
		}
	}

	if hasStdout || !hasFile {
		logger = logger.WithConsoleWriter(writerConfig(cfg, models.LogWriterTypeConsole, ""))
	}

	InitLogger(logger)
	return logger
}

func writerConfig(cfg *Config, writerType models.LogWriterType, filePath string) models.WriterConfiguration {
	level := "info"
	timeFormat := "15:04:05.000"
	if cfg != nil {
		if cfg.Logging.Level != "" {
			level = cfg.Logging.Level
		}
		if cfg.Logging.TimeFormat != "" {
			timeFormat = cfg.Logging.TimeFormat
		}
	}
	return models.WriterConfiguration{
		Type:       writerType,
		FileName:   filePath,
		Level:      models.ToLogLevel(level),
		TimeFormat: timeFormat,
	}
}
