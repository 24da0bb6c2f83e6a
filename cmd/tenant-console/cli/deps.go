package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/davarch/tenant-console/internal/domain"
	"github.com/davarch/tenant-console/internal/infrastructure/config"
	"github.com/davarch/tenant-console/internal/infrastructure/console_http"
	"github.com/davarch/tenant-console/internal/infrastructure/logging"
	"github.com/davarch/tenant-console/internal/infrastructure/session_fs"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type deps struct {
	cfg     config.Config
	log     *zap.Logger
	session *session_fs.Store
	api     *console_http.Client
}

func setup() (*deps, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	log := logging.New(cfg.Log.Level)

	session, err := session_fs.Open(cfg.Session.Path, cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	gw := console_http.NewGateway(cfg.API.BaseURL, cfg.API.Timeout, session, newLoginNavigator(os.Stderr), log)

	return &deps{
		cfg:     cfg,
		log:     log,
		session: session,
		api:     console_http.New(gw),
	}, nil
}

func (d *deps) close() { _ = d.log.Sync() }

// loginNavigator is the terminal's stand-in for a redirect: it tells the
// operator once per process where to go.
type loginNavigator struct {
	out  io.Writer
	once sync.Once
}

func newLoginNavigator(out io.Writer) *loginNavigator { return &loginNavigator{out: out} }

func (n *loginNavigator) Navigate(path string) {
	n.once.Do(func() {
		_, _ = color.New(color.FgYellow).Fprintf(n.out,
			"session rejected (%s): run `tenant-console login` to sign in again\n", path)
	})
}

func tenantArg(args []string, fallback string) (domain.TenantID, error) {
	if len(args) > 0 && args[0] != "" {
		return domain.TenantID(args[0]), nil
	}
	if fallback != "" {
		return domain.TenantID(fallback), nil
	}
	return "", fmt.Errorf("tenant id required (argument or view.tenant in config)")
}

// completeTenants asks the API for tenant ids. Completion must stay snappy,
// so it gives up quickly and never prints errors.
func completeTenants(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	d, err := setup()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	ts, err := d.api.ListTenants(ctx)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	return matchTenants(ts, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// matchTenants returns "id<TAB>name" completions for ids starting with prefix.
func matchTenants(ts []domain.Tenant, prefix string) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		id := string(t.ID)
		if strings.HasPrefix(id, prefix) {
			out = append(out, id+"\t"+t.Name)
		}
	}
	return out
}
