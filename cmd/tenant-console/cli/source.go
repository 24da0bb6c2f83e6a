package cli

import (
	"fmt"
	"os"

	"github.com/davarch/tenant-console/internal/domain"
	"github.com/spf13/cobra"
)

var sourceCfg domain.SourceConfig

var sourceCmd = &cobra.Command{
	Use:   "source",
	Short: "Manage a tenant's upstream data source",
}

var sourceSetCmd = &cobra.Command{
	Use:               "set <tenant_id>",
	Short:             "Save database credentials for a tenant's pipeline source",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeTenants,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := setup()
		if err != nil {
			return err
		}
		defer d.close()

		sc := sourceCfg
		if sc.Password == "" {
			sc.Password = os.Getenv("SOURCE_DB_PASSWORD")
		}
		if sc.Password == "" {
			return fmt.Errorf("--db-password or SOURCE_DB_PASSWORD is required")
		}

		if err := d.api.SaveSourceConfig(cmd.Context(), domain.TenantID(args[0]), sc); err != nil {
			return fmt.Errorf("save source config: %w", err)
		}

		fmt.Printf("source saved: %s (%s:%d)\n", args[0], sc.Host, sc.Port)
		return nil
	},
}

func init() {
	f := sourceSetCmd.Flags()
	f.StringVar(&sourceCfg.Host, "db-host", "", "database host")
	f.IntVar(&sourceCfg.Port, "db-port", domain.DefaultSourcePort, "database port")
	f.StringVar(&sourceCfg.Username, "db-username", "", "database user")
	f.StringVar(&sourceCfg.Password, "db-password", "", "database password (or SOURCE_DB_PASSWORD)")
	_ = sourceSetCmd.MarkFlagRequired("db-host")
	_ = sourceSetCmd.MarkFlagRequired("db-username")

	sourceCmd.AddCommand(sourceSetCmd)
	rootCmd.AddCommand(sourceCmd)
}
