package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrNoWorkbook is returned when a workbook command runs without a workbook.
var ErrNoWorkbook = errors.New("no workbook given")

var (
	validOutputs    = []string{"auto", "text", "markdown", "json", "yaml", "csv"}
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"text", "json", "pretty"}
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !slices.Contains(validOutputs, c.Output) {
		return fmt.Errorf("invalid output %q (expected one of %s)", c.Output, strings.Join(validOutputs, ", "))
	}
	if !slices.Contains(validLogLevels, strings.ToLower(c.Log.Level)) {
		return fmt.Errorf("invalid log level %q (expected one of %s)", c.Log.Level, strings.Join(validLogLevels, ", "))
	}
	if !slices.Contains(validLogFormats, c.Log.Format) {
		return fmt.Errorf("invalid log format %q (expected one of %s)", c.Log.Format, strings.Join(validLogFormats, ", "))
	}
	for _, s := range c.Sections {
		if !slices.Contains(AllSections, s) {
			return fmt.Errorf("unknown section %q (expected any of %s)", s, strings.Join(AllSections, ", "))
		}
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %s", c.Watch.Debounce)
	}
	return nil
}

// ValidateWorkbook checks that a workbook is configured. Existence is left
// to the loader so that a missing file surfaces as workbook.ErrNotFound.
func (c *Config) ValidateWorkbook() error {
	if c.Workbook == "" {
		return fmt.Errorf("%w\nHint: pass --workbook or set workbook in twbdoc.yaml", ErrNoWorkbook)
	}
	return nil
}
