package recorder

import (
	"fmt"

	"MarketWatch/internal/config"

	"go.uber.org/zap"
)

// Open builds the recorder selected by cfg.Driver.
func Open(cfg config.DatabaseConfig, log *zap.Logger) (Recorder, error) {
	switch cfg.Driver {
	case "sqlite":
		return NewSQLiteRecorder(cfg.SQLitePath, log)
	case "postgres":
		return NewPostgresRecorder(cfg.PostgresDSN, log)
	case "none", "":
		return NewNoopRecorder(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
