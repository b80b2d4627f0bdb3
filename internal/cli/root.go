// Package cli provides the command-line interface for twbdoc.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/twbdoc/twbdoc/internal/cli/commands"
	"github.com/twbdoc/twbdoc/internal/cli/config"
	"github.com/twbdoc/twbdoc/internal/cli/output"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// Command group IDs.
const (
	GroupStructure = "structure"
	GroupLineage   = "lineage"
	GroupReports   = "reports"
	GroupSetup     = "setup"
)

// Groups lists the command groups in help order.
var Groups = []*cobra.Group{
	{ID: GroupStructure, Title: "Workbook Structure:"},
	{ID: GroupLineage, Title: "Field Lineage:"},
	{ID: GroupReports, Title: "Reports:"},
	{ID: GroupSetup, Title: "Setup:"},
}

// configKey is used to store config in context.
type configKey struct{}

// rendererKey is used to store renderer in context.
type rendererKey struct{}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "twbdoc",
		Short: "twbdoc - Tableau workbook field lineage documenter",
		Long: `twbdoc documents Tableau workbooks (.twb).

It lists a workbook's datasources, tables, worksheets and dashboards, traces
which calculated fields use which fields, counts how often each field is used
by worksheets and dashboards, and summarizes the resulting field dependency
network.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.LoadConfig(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			logger := config.NewLogger(cmd.ErrOrStderr(), cfg)

			// Store config, logger and renderer in context
			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)
			ctx = config.WithLogger(ctx, logger)
			renderer := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.Output))
			ctx = context.WithValue(ctx, rendererKey{}, renderer)
			cmd.SetContext(ctx)

			if configFile := config.GetConfigFileUsed(); configFile != "" {
				logger.Debug("using config file", "path", configFile)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set version template
	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
Tableau workbook field lineage documenter
`)

	// Global persistent flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./twbdoc.yaml)")
	flags.StringP("workbook", "w", "", "Path to the Tableau workbook (.twb)")
	flags.StringP("output", "o", "", "Output format (auto|text|markdown|json|yaml|csv)")
	flags.String("output-dir", "", "Directory for exported artifacts")
	flags.StringSlice("sections", nil, "Report sections for document (comma-separated, or all)")
	flags.String("catalog-path", "", "Path to the run history catalog")
	flags.String("debounce", "", "Quiet period before a watched change is re-documented (e.g. 250ms)")
	flags.String("log-level", "", "Log level (debug|info|warn|error)")
	flags.String("log-format", "", "Log format (text|json|pretty)")
	flags.BoolP("verbose", "v", false, "Verbose output (debug logging)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return output.Modes, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("sections", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return append([]string{"all"}, config.AllSections...), cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("workbook", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"twb"}, cobra.ShellCompDirectiveFilterFileExt
	})
	_ = rootCmd.RegisterFlagCompletionFunc("log-level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("log-format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json", "pretty"}, cobra.ShellCompDirectiveNoFileComp
	})

	// Add subcommands by group
	rootCmd.AddGroup(Groups...)
	add := func(groupID string, cmds ...*cobra.Command) {
		for _, c := range cmds {
			c.GroupID = groupID
			rootCmd.AddCommand(c)
		}
	}
	add(GroupStructure,
		commands.NewDatasourcesCommand(),
		commands.NewTablesCommand(),
		commands.NewWorksheetsCommand(),
		commands.NewDashboardsCommand(),
	)
	add(GroupLineage,
		commands.NewDependenciesCommand(),
		commands.NewUsageCommand(),
		commands.NewGraphCommand(),
		commands.NewLineageCommand(),
	)
	add(GroupReports,
		commands.NewDocumentCommand(),
		commands.NewHistoryCommand(),
	)
	add(GroupSetup,
		commands.NewInitCommand(),
		commands.NewVersionCommand(commands.BuildInfo{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
		}),
		NewCompletionCommand(),
	)
	rootCmd.SetHelpCommandGroupID(GroupSetup)

	return rootCmd
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// GetConfig retrieves the config from the command context.
func GetConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	// Return default config if none in context
	return config.Default()
}

// GetRenderer retrieves the renderer from the command context.
func GetRenderer(ctx context.Context) *output.Renderer {
	if r, ok := ctx.Value(rendererKey{}).(*output.Renderer); ok {
		return r
	}
	// Return default renderer if none in context
	return output.NewRenderer(os.Stdout, os.Stderr, output.ModeAuto)
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for twbdoc.

To load completions:

Bash:
  $ source <(twbdoc completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ twbdoc completion bash > /etc/bash_completion.d/twbdoc
  # macOS:
  $ twbdoc completion bash > $(brew --prefix)/etc/bash_completion.d/twbdoc

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ twbdoc completion zsh > "${fpath[1]}/_twbdoc"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ twbdoc completion fish | source

  # To load completions for each session, execute once:
  $ twbdoc completion fish > ~/.config/fish/completions/twbdoc.fish

PowerShell:
  PS> twbdoc completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> twbdoc completion powershell > twbdoc.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}
