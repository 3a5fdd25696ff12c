package commands

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/barefootlabs/bdp/internal/cli/config"
	"github.com/barefootlabs/bdp/internal/engine"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
	Engine *engine.Engine
}

// NewCommandContext creates a CommandContext with a configured engine.
// Returns the context and a cleanup function that must be called (typically
// via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := config.GetConfig(cmd.Context())
	logger := config.GetLogger(cmd.Context())

	eng, err := createEngine(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		_ = eng.Close()
	}

	return &CommandContext{
		Cfg:    cfg,
		Logger: logger,
		Engine: eng,
	}, cleanup, nil
}

func createEngine(cfg *config.Config, logger *slog.Logger) (*engine.Engine, error) {
	timeout, err := time.ParseDuration(cfg.ScriptTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid script timeout %q: %w", cfg.ScriptTimeout, err)
	}

	return engine.New(engine.Config{
		AssetsDir:     cfg.AssetsDir,
		DatabasePath:  cfg.DatabasePath,
		Jobs:          cfg.Jobs,
		ScriptTimeout: timeout,
	}, logger), nil
}
