package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/twbdoc/twbdoc/internal/cli/config"
)

// ConfigField represents a configuration key.
type ConfigField struct {
	Key         string
	Type        string
	Default     string
	Flag        string
	Description string
}

// getConfigSchema returns the configuration keys with their defaults.
func getConfigSchema() []ConfigField {
	def := config.Default()
	return []ConfigField{
		{Key: "workbook", Type: "string", Flag: "--workbook", Description: "Workbook documented when no argument is given"},
		{Key: "output", Type: "string", Default: def.Output, Flag: "--output", Description: "auto, text, markdown, json, yaml or csv"},
		{Key: "output_dir", Type: "string", Default: def.OutputDir, Flag: "--output-dir", Description: "Directory for exported artifacts"},
		{Key: "sections", Type: "[]string", Default: strings.Join(def.Sections, ","), Flag: "--sections", Description: "Sections of the document command, or all"},
		{Key: "verbose", Type: "bool", Default: "false", Flag: "--verbose", Description: "Debug logging"},
		{Key: "log.level", Type: "string", Default: def.Log.Level, Flag: "--log-level", Description: "debug, info, warn or error"},
		{Key: "log.format", Type: "string", Default: def.Log.Format, Flag: "--log-format", Description: "text, json or pretty"},
		{Key: "catalog.path", Type: "string", Default: def.Catalog.Path, Flag: "--catalog-path", Description: "SQLite run history database"},
		{Key: "graph.export", Type: "bool", Default: "false", Flag: "graph --export", Description: "Export graph artifacts on every graph run"},
		{Key: "graph.title", Type: "string", Default: def.Graph.Title, Description: "Name of the exported graph"},
		{Key: "watch.debounce", Type: "duration", Default: def.Watch.Debounce.String(), Flag: "--debounce", Description: "Quiet period before a watched change is processed"},
	}
}

// envName returns the environment variable for a config key.
func envName(key string) string {
	return config.EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "__"))
}

// generateConfigDocs generates the configuration reference page.
func generateConfigDocs(outDir string) error {
	log.Printf("Generating configuration docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	w := NewMarkdownWriter()
	w.Frontmatter("Configuration", "twbdoc configuration reference")
	w.GeneratedMarker()

	w.Header(1, "Configuration")
	w.Paragraph("twbdoc reads `twbdoc.yaml` from the working directory, or the file given with `--config`. " +
		"Environment variables override the file and explicitly set flags override both.")

	headers := []string{"Key", "Type", "Default", "Environment", "Flag", "Description"}
	var rows [][]string
	for _, f := range getConfigSchema() {
		defVal, flagName := "-", "-"
		if f.Default != "" {
			defVal = InlineCode(f.Default)
		}
		if f.Flag != "" {
			flagName = InlineCode(f.Flag)
		}
		rows = append(rows, []string{InlineCode(f.Key), f.Type, defVal, InlineCode(envName(f.Key)), flagName, f.Description})
	}
	w.Table(headers, rows)

	w.Header(2, "Example")
	w.CodeBlock("yaml", `workbook: reports/sales.twb
output: markdown
output_dir: docs/sales
sections: [dependencies, usage, graph]
log:
  level: info
catalog:
  path: .twbdoc/catalog.db
watch:
  debounce: 250ms`)

	w.Paragraph("Run `twbdoc init` to write a starter file holding every key.")

	filename := filepath.Join(outDir, "configuration.md")
	if err := os.WriteFile(filename, w.Bytes(), 0600); err != nil {
		return err
	}
	log.Printf("  Generated configuration.md")
	return nil
}
