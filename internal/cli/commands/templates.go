package commands

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/twbdoc/twbdoc/internal/cli/config"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// ConfigFileName is the file written by init and found by LoadConfig.
const ConfigFileName = "twbdoc.yaml"

var configTemplate = template.Must(template.ParseFS(templateFS, "templates/twbdoc.yaml.tmpl"))

// renderConfigTemplate renders the starter config for cfg.
func renderConfigTemplate(cfg *config.Config) ([]byte, error) {
	var buf bytes.Buffer
	if err := configTemplate.Execute(&buf, cfg); err != nil {
		return nil, fmt.Errorf("failed to render config template: %w", err)
	}
	return buf.Bytes(), nil
}

// writeConfigFile writes the starter config into dir. An existing file is
// kept unless force is set.
func writeConfigFile(dir string, cfg *config.Config, force bool) (string, error) {
	path := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(path); err == nil && !force {
		return "", fmt.Errorf("%s already exists. Use --force to overwrite", path)
	}

	content, err := renderConfigTemplate(cfg)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, content, 0600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
