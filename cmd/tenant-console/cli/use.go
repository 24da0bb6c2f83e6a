package cli

import (
	"fmt"

	"github.com/davarch/tenant-console/internal/infrastructure/config"
	"github.com/spf13/cobra"
)

// use rewrites view.tenant; a running `watch` without an explicit tenant
// picks the change up and switches.
var useCmd = &cobra.Command{
	Use:               "use <tenant_id>",
	Short:             "Set the tenant watched by default in config.yaml",
	Args:              cobra.MatchAll(cobra.ExactArgs(1)),
	ValidArgsFunction: completeTenants,
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}

		if cfg.View.Tenant == id {
			fmt.Printf("no change (tenant %q already selected)\n", id)
			return nil
		}

		cfg.View.Tenant = id
		if err := config.Save(cfgPath, cfg); err != nil {
			return err
		}

		fmt.Printf("using: %s\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(useCmd)
}
