package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-avrusbboot/config"
)

func newInitConfigCmd(opts *rootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "Write a configuration file with the default settings",
		Long: `Write a YAML configuration file holding the effective settings (defaults,
an existing --config file and flag overrides). Without a path the default
location is used.

Examples:
  avrusbboot init-config
  avrusbboot init-config --timeout 2s ./avrusbboot.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.GetDefaultConfigPath()
			if len(args) == 1 {
				path = args[0]
			}

			if config.ConfigExists(path) && !force {
				return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
			}

			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := config.SaveConfig(cfg, path); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}
