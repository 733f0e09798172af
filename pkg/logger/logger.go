// Package logger содержит настройку логгера.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// TimeLayout формат времени в логах
const TimeLayout = "01.02.2006| 15:04:05"

// Config представляет конфигурацию логгера
type Config struct {
	Level      string `env:"LOG_LEVEL" envDefault:"info"`
	FilePath   string `env:"LOG_FILE_PATH" envDefault:"log.log"`
	MaxSize    int    `env:"LOG_MAX_SIZE" envDefault:"5"` // MB
	MaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"7"`
}

// DefaultConfig возвращает конфигурацию по умолчанию: 5 MB на файл, 7 архивов
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		FilePath:   "log.log",
		MaxSize:    5,
		MaxBackups: 7,
	}
}

// New создает логгер, который пишет в stdout и в ротируемый файл
func New(cfg Config) (*zap.Logger, error) {
	rotator, err := newRotator(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithWriters(cfg, os.Stdout, rotator), nil
}

// NewWithWriters собирает логгер из консольного и файлового потоков
func NewWithWriters(cfg Config, console, file io.Writer) *zap.Logger {
	level := parseLevel(cfg.Level)
	encoder := zapcore.NewConsoleEncoder(encoderConfig())

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.AddSync(console), level),
	}
	if file != nil {
		cores = append(cores, zapcore.NewCore(encoder.Clone(), zapcore.AddSync(file), level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}

func newRotator(cfg Config) (*lumberjack.Logger, error) {
	if cfg.FilePath == "" {
		return nil, fmt.Errorf("log file path is empty")
	}
	if dir := filepath.Dir(cfg.FilePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	return &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
	}, nil
}

// encoderConfig задает формат "время - уровень - имя - место вызова - сообщение"
func encoderConfig() zapcore.EncoderConfig {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "ts"
	encoderConfig.NameKey = "logger"
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(TimeLayout)
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.ConsoleSeparator = " - "
	return encoderConfig
}

// parseLevel получает уровень логирования, по умолчанию info
func parseLevel(level string) zapcore.Level {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return parsed
}
