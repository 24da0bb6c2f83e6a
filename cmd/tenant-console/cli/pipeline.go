package cli

import (
	"fmt"

	"github.com/davarch/tenant-console/internal/application"
	"github.com/spf13/cobra"
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Inspect or start/stop a tenant's pipeline",
}

var pipelineStatusCmd = &cobra.Command{
	Use:               "status [tenant_id]",
	Short:             "Show whether the tenant's pipeline is running",
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeTenants,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := setup()
		if err != nil {
			return err
		}
		defer d.close()

		tenant, err := tenantArg(args, d.cfg.View.Tenant)
		if err != nil {
			return err
		}

		ctrl := application.NewPipelineControl(d.log, d.api, tenant, nil)
		if err := ctrl.Load(cmd.Context()); err != nil {
			return err
		}

		fmt.Println(formatControl(ctrl.View()))
		return nil
	},
}

var pipelineToggleCmd = &cobra.Command{
	Use:               "toggle [tenant_id]",
	Short:             "Start a stopped pipeline or stop a running one",
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeTenants,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := setup()
		if err != nil {
			return err
		}
		defer d.close()

		tenant, err := tenantArg(args, d.cfg.View.Tenant)
		if err != nil {
			return err
		}

		ctrl := application.NewPipelineControl(d.log, d.api, tenant, nil)
		// toggling from an unknown state could flip a running pipeline back on
		if err := ctrl.Load(cmd.Context()); err != nil {
			return err
		}

		before := ctrl.View().State
		after, err := ctrl.Toggle(cmd.Context())
		if err != nil {
			fmt.Println(formatControl(ctrl.View()))
			return err
		}

		fmt.Printf("[%s] pipeline %s -> %s\n", tenant, before, stateColor(after).Sprint(after))
		return nil
	},
}

func init() {
	pipelineCmd.AddCommand(pipelineStatusCmd, pipelineToggleCmd)
	rootCmd.AddCommand(pipelineCmd)
}
