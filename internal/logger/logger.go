package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Init builds the process-wide logger and installs it via
// zap.ReplaceGlobals. Packages log through zap.L() with a component
// field rather than passing loggers around.
func Init(serviceName string) *zap.Logger {
	var cfg zap.Config
	if os.Getenv("ENV") == "development" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	logger := zap.Must(cfg.Build()).With(
		zap.String("service", serviceName),
	)
	zap.ReplaceGlobals(logger)
	return logger
}
