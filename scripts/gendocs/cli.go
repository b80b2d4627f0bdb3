package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/twbdoc/twbdoc/internal/cli"
	"github.com/twbdoc/twbdoc/internal/cli/config"
	"github.com/twbdoc/twbdoc/internal/cli/output"
	"github.com/twbdoc/twbdoc/internal/engine"
)

// CLIReferenceFile is the page written by generateCLIDocs.
const CLIReferenceFile = "cli.md"

// generateCLIDocs writes the CLI reference page into outDir.
func generateCLIDocs(outDir string) error {
	log.Printf("Generating CLI docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	page := renderCLIReference(cli.NewRootCmd())
	if err := os.WriteFile(filepath.Join(outDir, CLIReferenceFile), page, 0600); err != nil {
		return err
	}
	log.Printf("  Generated %s", CLIReferenceFile)
	return nil
}

// renderCLIReference renders the whole command tree as one page, one
// section per command group.
func renderCLIReference(root *cobra.Command) []byte {
	w := NewMarkdownWriter()
	w.Frontmatter("CLI Reference", "Command-line reference for twbdoc")
	w.GeneratedMarker()

	w.Header(1, "CLI Reference")
	w.Paragraph(root.Long)
	w.CodeBlock("bash", "twbdoc <command> [workbook] [options]")
	w.Paragraph("The workbook is the first argument, the `--workbook` flag or the `workbook` " +
		"configuration key. `-` reads it from standard input.")

	writeOutputModes(w)
	writeArtifacts(w)

	w.Header(2, "Global Options")
	writeFlagsTable(w, root.PersistentFlags())

	for _, group := range root.Groups() {
		cmds := groupCommands(root, group.ID)
		if len(cmds) == 0 {
			continue
		}
		w.Header(2, strings.TrimSuffix(group.Title, ":"))
		for _, cmd := range cmds {
			writeCommand(w, cmd)
		}
	}

	w.Header(2, "Exit Codes")
	w.Table([]string{"Code", "Meaning"}, [][]string{
		{InlineCode("0"), "Success"},
		{InlineCode("1"), "Any error, printed to stderr"},
	})

	return w.Bytes()
}

func writeOutputModes(w *MarkdownWriter) {
	w.Header(2, "Output Modes")
	notes := map[string]string{
		"auto":     "text on a terminal, markdown otherwise",
		"text":     "styled tables for terminals",
		"markdown": "headings and pipe tables",
		"json":     "indented JSON",
		"yaml":     "YAML",
		"csv":      "comma-separated rows with a header",
	}
	var rows [][]string
	for _, mode := range output.Modes {
		rows = append(rows, []string{InlineCode(mode), notes[mode]})
	}
	w.Table([]string{"Mode", "Renders"}, rows)

	var sections []string
	for _, s := range config.AllSections {
		sections = append(sections, InlineCode(s))
	}
	w.Paragraph("`document` renders the sections " + strings.Join(sections, ", ") +
		"; `--sections` picks a subset.")
}

func writeArtifacts(w *MarkdownWriter) {
	w.Header(2, "Artifacts")
	w.Paragraph("`graph --export` and `document --export` write into the output directory:")
	w.Table([]string{"File", "Content"}, [][]string{
		{InlineCode(engine.GraphDOTFile), "Graphviz document of the dependency graph with node colours and sizes"},
		{InlineCode(engine.GraphJSONFile), "nodes, edges and statistics of the dependency graph"},
		{InlineCode(engine.ReportFile), "the full report"},
	})
}

// groupCommands returns the visible commands of a group in registration
// order.
func groupCommands(root *cobra.Command, groupID string) []*cobra.Command {
	var out []*cobra.Command
	for _, cmd := range root.Commands() {
		if cmd.GroupID == groupID && cmd.IsAvailableCommand() {
			out = append(out, cmd)
		}
	}
	return out
}

func writeCommand(w *MarkdownWriter, cmd *cobra.Command) {
	w.Header(3, cmd.Name())
	w.Paragraph(cleanDescription(cmd.Short) + ".")
	w.CodeBlock("bash", cmd.UseLine())

	if cmd.HasAvailableLocalFlags() {
		writeFlagsTable(w, cmd.LocalNonPersistentFlags())
	}
	if cmd.Example != "" {
		w.CodeBlock("bash", dedent(cmd.Example))
	}
}

// writeFlagsTable writes one row per visible flag.
func writeFlagsTable(w *MarkdownWriter, flags *pflag.FlagSet) {
	var rows [][]string
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden || f.Name == "help" {
			return
		}
		name := InlineCode("--" + f.Name)
		if f.Shorthand != "" {
			name = InlineCode("-"+f.Shorthand) + ", " + name
		}
		def := "-"
		if f.DefValue != "" && f.DefValue != "[]" {
			def = InlineCode(f.DefValue)
		}
		rows = append(rows, []string{name, def, cleanDescription(f.Usage)})
	})
	if len(rows) == 0 {
		return
	}
	w.Table([]string{"Flag", "Default", "Description"}, rows)
}

// dedent strips the two-space indent cobra examples are written with.
func dedent(example string) string {
	lines := strings.Split(strings.TrimSpace(example), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, "  ")
	}
	return strings.Join(lines, "\n")
}
