package config

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "twbdoc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.StringP("workbook", "w", "", "workbook")
	flags.StringP("output", "o", "", "output")
	flags.String("output-dir", "", "output directory")
	flags.String("log-level", "", "log level")
	flags.StringSlice("sections", nil, "sections")
	flags.String("debounce", "", "debounce")
	return flags
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Same(t, cfg, GetCurrentConfig())
	assert.Empty(t, GetConfigFileUsed())
}

func TestLoadConfig_File(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, `workbook: sales.twb
output: json
log:
  level: DEBUG
  format: json
sections: [dependencies, usage]
catalog:
  path: history.db
graph:
  export: true
watch:
  debounce: 250ms
`)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, path, GetConfigFileUsed())
	assert.Equal(t, "sales.twb", cfg.Workbook)
	assert.Equal(t, "json", cfg.Output)
	assert.Equal(t, LogConfig{Level: "debug", Format: "json"}, cfg.Log)
	assert.Equal(t, []string{SectionDependencies, SectionUsage}, cfg.Sections)
	assert.Equal(t, "history.db", cfg.Catalog.Path)
	assert.True(t, cfg.Graph.Export)
	assert.Equal(t, DefaultGraphTitle, cfg.Graph.Title, "unset keys keep their defaults")
	assert.Equal(t, 250*time.Millisecond, cfg.Watch.Debounce)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	ResetConfig()

	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoadConfig_Env(t *testing.T) {
	ResetConfig()
	t.Setenv("TWBDOC_WORKBOOK", "env.twb")
	t.Setenv("TWBDOC_OUTPUT_DIR", "env-out")
	t.Setenv("TWBDOC_LOG__LEVEL", "info")
	t.Setenv("TWBDOC_SECTIONS", "usage, graph,usage")

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "env.twb", cfg.Workbook)
	assert.Equal(t, "env-out", cfg.OutputDir)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, []string{SectionUsage, SectionGraph}, cfg.Sections)
}

func TestLoadConfig_Precedence(t *testing.T) {
	path := writeConfig(t, "workbook: from_file.twb\n")

	tests := []struct {
		name    string
		env     string
		flagVal string
		want    string
	}{
		{"file only", "", "", "from_file.twb"},
		{"env beats file", "from_env.twb", "", "from_env.twb"},
		{"flag beats env", "from_env.twb", "from_flag.twb", "from_flag.twb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetConfig()
			if tt.env != "" {
				t.Setenv("TWBDOC_WORKBOOK", tt.env)
			}
			flags := testFlags()
			if tt.flagVal != "" {
				require.NoError(t, flags.Set("workbook", tt.flagVal))
			}

			cfg, err := LoadConfig(path, flags)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Workbook)
		})
	}
}

func TestLoadConfig_FlagKeys(t *testing.T) {
	ResetConfig()
	t.Setenv("TWBDOC_OUTPUT", "yaml")

	flags := testFlags()
	require.NoError(t, flags.Set("log-level", "error"))
	require.NoError(t, flags.Set("sections", "all"))
	require.NoError(t, flags.Set("debounce", "1s"))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, AllSections, cfg.Sections)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
	assert.Equal(t, "yaml", cfg.Output, "unchanged flags do not mask env")
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		errSubstr string
	}{
		{"output", "output: html\n", "invalid output"},
		{"log level", "log:\n  level: loud\n", "invalid log level"},
		{"log format", "log:\n  format: xml\n", "invalid log format"},
		{"section", "sections: [charts]\n", "unknown section"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetConfig()
			_, err := LoadConfig(writeConfig(t, tt.content), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestConfig_ValidateWorkbook(t *testing.T) {
	cfg := Default()
	require.ErrorIs(t, cfg.ValidateWorkbook(), ErrNoWorkbook)

	cfg.Workbook = "book.twb"
	assert.NoError(t, cfg.ValidateWorkbook())
}

func TestConfig_HasSection(t *testing.T) {
	cfg := Default()
	for _, s := range AllSections {
		assert.True(t, cfg.HasSection(s), s)
	}

	cfg.Sections = []string{SectionUsage}
	assert.True(t, cfg.HasSection(SectionUsage))
	assert.False(t, cfg.HasSection(SectionGraph))
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name     string
		log      LogConfig
		verbose  bool
		level    slog.Level
		contains string
	}{
		{"json", LogConfig{Level: "info", Format: "json"}, false, slog.LevelInfo, `"msg":"hello"`},
		{"text", LogConfig{Level: "warn", Format: "text"}, false, slog.LevelWarn, "msg=hello"},
		{"pretty", LogConfig{Level: "error", Format: "pretty"}, false, slog.LevelError, "hello"},
		{"verbose forces debug", LogConfig{Level: "error", Format: "text"}, true, slog.LevelDebug, "msg=hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			cfg := Default()
			cfg.Log = tt.log
			cfg.Verbose = tt.verbose

			logger := NewLogger(&buf, cfg)
			ctx := context.Background()
			assert.True(t, logger.Enabled(ctx, tt.level))
			assert.False(t, logger.Enabled(ctx, tt.level-1))

			logger.Log(ctx, tt.level, "hello")
			assert.Contains(t, buf.String(), tt.contains)
			assert.NotContains(t, buf.String(), "\x1b[", "non-terminal writers are not colored")
		})
	}
}

func TestGetLogger(t *testing.T) {
	fallback := GetLogger(context.Background())
	require.NotNil(t, fallback)
	assert.False(t, fallback.Enabled(context.Background(), slog.LevelError))

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, GetLogger(ctx))
}
