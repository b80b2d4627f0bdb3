package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/twbdoc/twbdoc/internal/cli"
	"github.com/twbdoc/twbdoc/internal/cli/config"
	"github.com/twbdoc/twbdoc/internal/cli/testutil"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	config.ResetConfig()
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	output, err := run(t, "version")
	if err != nil {
		t.Fatalf("version command error = %v", err)
	}
	if !strings.Contains(output, "twbdoc") {
		t.Errorf("version output should contain 'twbdoc', got: %s", output)
	}
}

func TestVersionFlag(t *testing.T) {
	output, err := run(t, "--version")
	if err != nil {
		t.Fatalf("--version error = %v", err)
	}
	if !strings.HasPrefix(output, "twbdoc "+cli.Version) {
		t.Errorf("--version output = %q", output)
	}
}

func TestHelpCommand(t *testing.T) {
	output, err := run(t, "--help")
	if err != nil {
		t.Fatalf("help command error = %v", err)
	}

	expectedCommands := []string{"datasources", "dependencies", "usage", "graph", "lineage", "document", "history"}
	for _, expected := range expectedCommands {
		if !strings.Contains(output, expected) {
			t.Errorf("help output should contain '%s', got: %s", expected, output)
		}
	}
}

func TestDocumentFixture(t *testing.T) {
	output, err := run(t, "document", testutil.Fixture(t), "--output", "markdown")
	if err != nil {
		t.Fatalf("document error = %v", err)
	}
	for _, want := range []string{"# Workbook Documentation: superstore.twb", "## Field Dependencies", "## Field Usage"} {
		if !strings.Contains(output, want) {
			t.Errorf("document output should contain %q", want)
		}
	}
}

func TestUnknownCommand(t *testing.T) {
	if _, err := run(t, "lint"); err == nil {
		t.Error("expected error for unknown command")
	}
}
