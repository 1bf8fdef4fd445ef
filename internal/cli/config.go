// Package cli provides the command-line interface for drover.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/droverhq/drover/internal/config"
)

// AddConfigCommand adds the config command group to the root command.
func AddConfigCommand(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())
	parent.AddCommand(cmd)
}

// newConfigShowCmd creates the config show subcommand.
func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration after layering",
		Long: `Print the configuration that results from merging defaults, the
global file, the project file, and DROVER_ environment variables.

Only environment variable names are stored in configuration, never
credential values, so the output is safe to share.

Examples:
  drover config show                # YAML output
  drover config show --output json  # JSON output`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, os.Stdout)
		},
	}
}

// runConfigShow loads and prints the effective configuration.
func runConfigShow(cmd *cobra.Command, w io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if cmd.Flag("output").Value.String() == OutputJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(cfg)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// newConfigPathCmd creates the config path subcommand.
func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file locations",
		RunE: func(_ *cobra.Command, _ []string) error {
			globalPath, err := config.GlobalConfigPath()
			if err != nil {
				return err
			}
			fmt.Printf("global:  %s\nproject: %s\n", globalPath, config.ProjectConfigPath())
			return nil
		},
	}
}
