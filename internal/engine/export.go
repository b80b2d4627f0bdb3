package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/twbdoc/twbdoc/internal/dag"
)

// Artifact file names written by Export.
const (
	GraphDOTFile  = "field_dependencies_network.dot"
	GraphJSONFile = "field_dependencies_network.json"
	ReportFile    = "report.json"
)

// Export writes the report's artifacts into dir, creating it if needed.
// It returns the written paths in a fixed order.
func (e *Engine) Export(ctx context.Context, report *Report, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	g := report.DependencyGraph()
	writers := []struct {
		name   string
		encode func() ([]byte, error)
	}{
		{GraphDOTFile, func() ([]byte, error) { return dag.MarshalDOT(g, e.title) }},
		{GraphJSONFile, func() ([]byte, error) { return dag.MarshalJSON(g) }},
		{ReportFile, func() ([]byte, error) { return json.MarshalIndent(report, "", "  ") }},
	}

	paths := make([]string, len(writers))
	eg, egctx := errgroup.WithContext(ctx)
	for i, w := range writers {
		paths[i] = filepath.Join(dir, w.name)
		eg.Go(func() error {
			if err := egctx.Err(); err != nil {
				return err
			}
			data, err := w.encode()
			if err != nil {
				return fmt.Errorf("failed to encode %s: %w", w.name, err)
			}
			if err := os.WriteFile(paths[i], append(data, '\n'), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", w.name, err)
			}
			e.logger.Debug("wrote artifact", slog.String("path", paths[i]), slog.Int("bytes", len(data)+1))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return paths, nil
}
