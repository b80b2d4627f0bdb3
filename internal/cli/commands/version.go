package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version   string `json:"version" yaml:"version"`
	GitCommit string `json:"git_commit" yaml:"git_commit"`
	BuildDate string `json:"build_date" yaml:"build_date"`
	GoVersion string `json:"go_version" yaml:"go_version"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display twbdoc version and build information.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if info.GoVersion == "" {
				info.GoVersion = runtime.Version()
			}
			r := NewCommandContext(cmd).Renderer
			if ok, err := r.Structured(info); ok {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "twbdoc v%s\n", info.Version)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Tableau workbook field lineage documenter (commit %s, built %s, %s)\n",
				info.GitCommit, info.BuildDate, info.GoVersion)
			return nil
		},
	}
}
