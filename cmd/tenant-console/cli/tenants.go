package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/davarch/tenant-console/internal/domain"
	"github.com/spf13/cobra"
)

var listJSON bool

var (
	newTenantName     string
	newTenantEmail    string
	newTenantTimezone string
)

var tenantsCmd = &cobra.Command{
	Use:   "tenants",
	Short: "List and create tenants",
}

var tenantsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tenants",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := setup()
		if err != nil {
			return err
		}
		defer d.close()

		items, err := d.api.ListTenants(cmd.Context())
		if err != nil {
			return fmt.Errorf("list tenants: %w", err)
		}

		if listJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(items)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "ID\tNAME\tEMAIL\tTIMEZONE")
		for _, t := range items {
			name := t.Name
			if name == "" {
				name = "(unnamed)"
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.ID, name, t.Email, t.Timezone)
		}
		_ = w.Flush()
		return nil
	},
}

var tenantsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a tenant",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := setup()
		if err != nil {
			return err
		}
		defer d.close()

		t, err := d.api.CreateTenant(cmd.Context(), domain.NewTenant{
			Name:     newTenantName,
			Email:    newTenantEmail,
			Timezone: newTenantTimezone,
		})
		if err != nil {
			return fmt.Errorf("create tenant: %w", err)
		}

		fmt.Printf("created: %s (%s)\n", t.ID, t.Name)
		return nil
	},
}

func init() {
	tenantsListCmd.Flags().BoolVar(&listJSON, "json", false, "print JSON")

	tenantsCreateCmd.Flags().StringVar(&newTenantName, "name", "", "tenant name")
	tenantsCreateCmd.Flags().StringVar(&newTenantEmail, "email", "", "contact email")
	tenantsCreateCmd.Flags().StringVar(&newTenantTimezone, "timezone", "UTC", "tenant timezone")
	_ = tenantsCreateCmd.MarkFlagRequired("name")
	_ = tenantsCreateCmd.MarkFlagRequired("email")

	tenantsCmd.AddCommand(tenantsListCmd, tenantsCreateCmd)
	rootCmd.AddCommand(tenantsCmd)
}
