package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	once sync.Once
	log  *zap.Logger
)

// Get returns the process-wide logger, building it on first use.
func Get() *zap.Logger {
	once.Do(func() {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

		var err error
		log, err = cfg.Build()
		if err != nil {
			// falls back to a no-op logger instead of taking the node down
			log = zap.NewNop()
		}
	})
	return log
}
