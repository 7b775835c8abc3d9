package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/stashctl/internal/config"
)

func newInitCmd() *cobra.Command {
	var (
		writeConfig bool
		force       bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the data directories, index and category registry",
		Long: `Prepare a site root for stashctl. Creates data/items, assets/images,
an empty data/collections.json and the default data/categories.json.
Existing files are left untouched.

Examples:
  stashctl init
  stashctl init --site ./docs --write-config`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := newService()
			if err := svc.Init(); err != nil {
				return err
			}
			ok("Initialized site at %s", cfg.Site.Root)

			if !writeConfig {
				return nil
			}
			path := flagConfig
			if path == "" {
				path = config.Path()
			}
			if fileExists(path) && !force {
				warn("Config %s already exists (use --force to overwrite)", path)
				return nil
			}
			if err := config.SaveFile(path, cfg); err != nil {
				return fmt.Errorf("writing config: %w", err)
			}
			ok("Wrote config to %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&writeConfig, "write-config", false, "Also write the effective configuration file")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
