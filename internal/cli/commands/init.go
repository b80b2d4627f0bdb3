package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/twbdoc/twbdoc/internal/cli/config"
	"github.com/twbdoc/twbdoc/internal/cli/output"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a twbdoc.yaml configuration file",
		Long: `Write a twbdoc.yaml holding every configuration key with its default value.

The workbook given with --workbook is recorded so that later commands can
be run without naming it.`,
		Example: `  # Initialize in current directory
  twbdoc init -w sales.twb

  # Initialize in another directory
  twbdoc init reports/

  # Force overwrite existing config
  twbdoc init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			cfg := getConfig()
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.Output))
			return runInit(r, cfg, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")

	return cmd
}

func runInit(r *output.Renderer, cfg *config.Config, dir string, force bool) error {
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	path, err := writeConfigFile(dir, cfg, force)
	if err != nil {
		return err
	}

	r.Success("wrote " + path)
	r.Println("")
	r.Println("Next steps:")
	if cfg.Workbook == "" {
		r.Println("  1. Set workbook in " + ConfigFileName)
	} else {
		r.Println("  1. Check the settings in " + ConfigFileName)
	}
	r.Println("  2. Run 'twbdoc document' to document the workbook")
	r.Println("  3. Run 'twbdoc document --catalog' to start a run history")

	return nil
}
