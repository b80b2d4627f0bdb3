// Package config provides configuration management for the twbdoc CLI.
//
// Configuration is layered with koanf: built-in defaults, then a twbdoc.yaml
// file, then TWBDOC_ environment variables, then explicitly set flags.
package config

import "time"

// Config holds all CLI configuration options.
type Config struct {
	Workbook  string        `koanf:"workbook"`
	Output    string        `koanf:"output"`
	OutputDir string        `koanf:"output_dir"`
	Verbose   bool          `koanf:"verbose"`
	Log       LogConfig     `koanf:"log"`
	Sections  []string      `koanf:"sections"`
	Catalog   CatalogConfig `koanf:"catalog"`
	Graph     GraphConfig   `koanf:"graph"`
	Watch     WatchConfig   `koanf:"watch"`
}

// LogConfig controls the diagnostic logger.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// CatalogConfig locates the run history database.
type CatalogConfig struct {
	Path string `koanf:"path"`
}

// GraphConfig controls graph artifacts.
type GraphConfig struct {
	// Export writes the DOT and JSON graph files whenever the graph command runs.
	Export bool   `koanf:"export"`
	Title  string `koanf:"title"`
}

// WatchConfig controls document --watch.
type WatchConfig struct {
	Debounce time.Duration `koanf:"debounce"`
}

// Report sections, in document order.
const (
	SectionDatasources  = "datasources"
	SectionTables       = "tables"
	SectionWorksheets   = "worksheets"
	SectionDashboards   = "dashboards"
	SectionDependencies = "dependencies"
	SectionUsage        = "usage"
	SectionGraph        = "graph"
)

// AllSections lists every report section in document order.
var AllSections = []string{
	SectionDatasources,
	SectionTables,
	SectionWorksheets,
	SectionDashboards,
	SectionDependencies,
	SectionUsage,
	SectionGraph,
}

// Default configuration values.
const (
	DefaultOutput      = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultOutputDir   = "twbdoc-out"
	DefaultLogLevel    = "warn"
	DefaultLogFormat   = "pretty"
	DefaultCatalogPath = ".twbdoc/catalog.db"
	DefaultGraphTitle  = "Field Dependencies Network"
	DefaultDebounce    = 100 * time.Millisecond
)

// Default returns a Config populated with default values.
func Default() *Config {
	return &Config{
		Output:    DefaultOutput,
		OutputDir: DefaultOutputDir,
		Log:       LogConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
		Sections:  append([]string(nil), AllSections...),
		Catalog:   CatalogConfig{Path: DefaultCatalogPath},
		Graph:     GraphConfig{Title: DefaultGraphTitle},
		Watch:     WatchConfig{Debounce: DefaultDebounce},
	}
}

// HasSection reports whether the named section is enabled.
func (c *Config) HasSection(name string) bool {
	for _, s := range c.Sections {
		if s == name {
			return true
		}
	}
	return false
}
