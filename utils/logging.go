package utils

import (
	"go.uber.org/zap"
)

var logger = zap.NewNop().Sugar()

// Log is the process-wide logger, a no-op until SetLogger is called
func Log() *zap.SugaredLogger { return logger }

func SetLogger(l *zap.Logger) {
	if l == nil {
		logger = zap.NewNop().Sugar()
		return
	}
	logger = l.Sugar()
}

// NewLogger builds a console logger, debug level when verbose
func NewLogger(verbose bool) (l *zap.Logger, err error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}
