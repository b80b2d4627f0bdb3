package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/twbdoc/twbdoc/internal/catalog"
	"github.com/twbdoc/twbdoc/internal/cli/config"
	"github.com/twbdoc/twbdoc/internal/cli/output"
	"github.com/twbdoc/twbdoc/internal/engine"
)

// StdinWorkbook names a workbook read from standard input.
const StdinWorkbook = "-"

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
	In       io.Reader
}

// NewCommandContext creates a CommandContext with engine and renderer.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	eng := engine.New(engine.Config{
		Logger:     logger,
		Debounce:   cfg.Watch.Debounce,
		GraphTitle: cfg.Graph.Title,
	})

	mode := output.Mode(cfg.Output)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Engine:   eng,
		Renderer: r,
		In:       cmd.InOrStdin(),
	}
}

// Analyze documents the workbook named by args[0], or the configured
// workbook when no argument is given. "-" reads the workbook from stdin.
func (c *CommandContext) Analyze(ctx context.Context, args []string) (*engine.Report, error) {
	if len(args) > 0 && args[0] != "" {
		c.Cfg.Workbook = args[0]
	}
	if err := c.Cfg.ValidateWorkbook(); err != nil {
		return nil, err
	}
	if c.Cfg.Workbook == StdinWorkbook {
		return c.Engine.AnalyzeReader(ctx, StdinWorkbook, c.In)
	}
	return c.Engine.Analyze(ctx, c.Cfg.Workbook)
}

// OpenCatalog opens the configured run catalog, creating its directory.
// The caller must close the returned store.
func (c *CommandContext) OpenCatalog(ctx context.Context) (*catalog.Store, error) {
	path := c.Cfg.Catalog.Path
	if path != catalog.MemoryPath {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, fmt.Errorf("failed to create catalog directory: %w", err)
			}
		}
	}

	store := catalog.NewStore(c.Logger)
	if err := store.Open(ctx, path); err != nil {
		return nil, err
	}
	return store, nil
}

// getConfig returns the current configuration, or defaults when the root
// command did not load one.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}

// boolFlag returns the flag value when it was set on the command line,
// else the configured fallback.
func boolFlag(cmd *cobra.Command, name string, fallback bool) bool {
	if !cmd.Flags().Changed(name) {
		return fallback
	}
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		return fallback
	}
	return v
}
