package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twbdoc/twbdoc/internal/cli/config"
)

func TestNewInitCommand(t *testing.T) {
	tests := []struct {
		name     string
		setupDir func(t *testing.T, dir string)
		args     []string
		wantErr  bool
	}{
		{
			name: "init empty directory",
		},
		{
			name: "init existing config without force",
			setupDir: func(_ *testing.T, dir string) {
				_ = os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("existing"), 0600)
			},
			wantErr: true,
		},
		{
			name: "init existing config with force",
			setupDir: func(_ *testing.T, dir string) {
				_ = os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("existing"), 0600)
			},
			args: []string{"--force"},
		},
		{
			name: "init new subdirectory",
			args: []string{"reports"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config.ResetConfig()
			tmpDir := t.TempDir()
			t.Chdir(tmpDir)

			if tt.setupDir != nil {
				tt.setupDir(t, tmpDir)
			}

			cmd := NewInitCommand()
			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetErr(buf)
			cmd.SetArgs(tt.args)

			err := cmd.Execute()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			dir := tmpDir
			if len(tt.args) > 0 && tt.args[0] != "--force" {
				dir = filepath.Join(tmpDir, tt.args[0])
			}
			assert.FileExists(t, filepath.Join(dir, ConfigFileName))
			assert.Contains(t, buf.String(), "wrote")
		})
	}
}

func TestInitCommandMetadata(t *testing.T) {
	cmd := NewInitCommand()

	assert.Equal(t, "init [directory]", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotNil(t, cmd.Flags().Lookup("force"), "--force flag should exist")
}

func TestInitConfigRoundTrips(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := config.Default()
	cfg.Workbook = "reports/sales \"q1\".twb"
	cfg.Sections = []string{config.SectionDependencies, config.SectionUsage}
	cfg.Watch.Debounce = 250 * time.Millisecond

	path, err := writeConfigFile(tmpDir, cfg, false)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	parsed, err := yaml.Parser().Unmarshal(content)
	require.NoError(t, err, string(content))
	assert.Equal(t, cfg.Workbook, parsed["workbook"])

	config.ResetConfig()
	t.Cleanup(config.ResetConfig)
	loaded, err := config.LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
