package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/cenkalti/backoff/v4"
	"github.com/davarch/tenant-console/internal/application"
	"github.com/davarch/tenant-console/internal/domain"
	"github.com/davarch/tenant-console/internal/infrastructure/history_sqlite"
	"github.com/spf13/cobra"
)

var historyLimit int

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Tenant pipeline health",
}

var healthShowCmd = &cobra.Command{
	Use:               "show [tenant_id]",
	Short:             "Fetch the current health snapshot once",
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

		// a single fetch through the same cycle the watch view uses
		once := func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewConstantBackOff(d.cfg.Health.Interval), 0)
		}
		mon := application.NewHealthMonitor(d.log, d.api, d.cfg.Health.Interval, application.WithPolicy(once))
		mon.Start(cmd.Context(), tenant)
		<-mon.Done()
		mon.Stop()

		v := mon.View()
		if v.Snapshot == nil {
			return fmt.Errorf("failed to load health data for tenant %s", tenant)
		}

		fmt.Printf("[%s] %s\n", tenant, formatSnapshot(*v.Snapshot))
		return nil
	},
}

var healthHistoryCmd = &cobra.Command{
	Use:               "history [tenant_id]",
	Short:             "Show snapshots recorded by previous watch sessions",
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

		store, err := history_sqlite.Open(d.cfg.Health.HistoryPath)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		recs, err := store.Recent(cmd.Context(), tenant, historyLimit)
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Printf("no history for tenant %s\n", tenant)
			return nil
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "RETRIEVED\tSTATUS\tLAST SYNC\tLAST ERROR")
		for _, r := range recs {
			m := domain.StatusToPresentation(r.Health.Status)
			synced := "-"
			if !r.Health.LastSyncTime.IsZero() {
				synced = r.Health.LastSyncTime.Local().Format("2006-01-02 15:04:05")
			}
			lastErr := r.Health.LastError
			if lastErr == "" {
				lastErr = "-"
			}
			_, _ = fmt.Fprintf(tw, "%s\t%s %s\t%s\t%s\n",
				r.Retrieved.Local().Format("2006-01-02 15:04:05"),
				m.Symbol(), statusLabel(r.Health.Status), synced, lastErr)
		}
		return tw.Flush()
	},
}

func init() {
	healthHistoryCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of records to show")

	healthCmd.AddCommand(healthShowCmd, healthHistoryCmd)
	rootCmd.AddCommand(healthCmd)
}
