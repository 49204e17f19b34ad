// Package logging builds the zap.Logger and ectologger.Logger pair every
// entry point constructs once at startup.
package logging

import (
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls the verbosity and encoding of the process logger.
type Config struct {
	Level  string
	Pretty bool
}

// New builds a zap.Logger from cfg and wraps it as an ectologger.Logger via
// zapadapter, the way every repository and engine method in this package
// expects to receive one.
func New(cfg Config) (ectologger.Logger, *zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Pretty {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	zapLogger, err := zapCfg.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("build zap logger: %w", err)
	}

	return zapadapter.NewZapEctoLogger(zapLogger, nil), zapLogger, nil
}
