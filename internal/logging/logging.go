// Package logging 构建 zap 日志
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New 生产配置（JSON，Info 级别）；verbose 时为 Debug 级别
func New(verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return config.Build()
}
