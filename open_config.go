package termexp

import (
	"context"
	"log/slog"
	"os"

	"github.com/hupe1980/termexp/config"
	"github.com/hupe1980/termexp/expand"
)

// OpenConfig opens the database described by cfg. The logger, resource
// controller and expansion defaults come from cfg; opts are applied after
// them and take precedence.
func OpenConfig(ctx context.Context, cfg *config.Config, opts ...Option) (*DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger, err := loggerFromConfig(cfg.Logging)
	if err != nil {
		return nil, err
	}
	scheme, err := expand.ParseScheme(cfg.Expand.Scheme)
	if err != nil {
		return nil, translateError(err)
	}

	rc := cfg.Resources.Controller()
	base := []Option{
		WithLogger(logger),
		WithResourceController(rc),
		WithExpandDefaults(
			WithMaxItems(cfg.Expand.MaxItems),
			WithMinWeight(cfg.Expand.MinWeight),
			WithScheme(scheme),
			WithExpandK(cfg.Expand.ExpandK),
			WithExactTermFreq(cfg.Expand.ExactTermFreq),
		),
	}

	tables, err := cfg.OpenTables(ctx, rc)
	if err != nil {
		return nil, translateError(err)
	}
	db, err := Open(ctx, tables, append(base, opts...)...)
	if err != nil {
		config.CloseTables(tables)
		return nil, err
	}
	return db, nil
}

func loggerFromConfig(lc config.LoggingConfig) (*Logger, error) {
	level, err := lc.SlogLevel()
	if err != nil {
		return nil, err
	}
	if lc.Format == "text" {
		return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})), nil
	}
	return NewJSONLogger(level), nil
}
