package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/davarch/tenant-console/internal/application"
	"github.com/davarch/tenant-console/internal/domain"
	"github.com/davarch/tenant-console/internal/infrastructure/cache_fs"
	"github.com/davarch/tenant-console/internal/infrastructure/config"
	"github.com/davarch/tenant-console/internal/infrastructure/history_sqlite"
	"github.com/davarch/tenant-console/internal/infrastructure/notify_libnotify"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const reloadDebounce = 300 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:               "watch [tenant_id]",
	Short:             "Show a tenant's pipeline control and poll its health",
	Long:              "Mounts the tenant view: pipeline state plus health polled every health.interval.\nType t<Enter> to toggle the pipeline, q<Enter> to quit.",
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

		out := &printer{out: os.Stdout}
		opts := []application.MonitorOption{
			application.WithObserver(out.health),
			application.WithLink(d.api.HealthURL),
		}

		if d.cfg.Health.CachePath != "" {
			opts = append(opts, application.WithSinks(cache_fs.New(d.cfg.Health.CachePath)))
		}
		if d.cfg.Health.HistoryPath != "" {
			hist, err := history_sqlite.Open(d.cfg.Health.HistoryPath)
			if err != nil {
				d.log.Warn("health history disabled", zap.Error(err))
			} else {
				defer func() { _ = hist.Close() }()
				opts = append(opts, application.WithSinks(hist))
			}
		}
		if d.cfg.Health.Notify {
			opts = append(opts, application.WithNotifier(notify_libnotify.NewSoft().Limited(d.cfg.Health.NotifyRate)))
		}

		mon := application.NewHealthMonitor(d.log, d.api, d.cfg.Health.Interval, opts...)
		view := application.NewTenantView(d.log, d.api, mon, out.control)

		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		d.log.Info("start",
			zap.String("version", version),
			zap.String("tenant", string(tenant)),
			zap.Duration("every", d.cfg.Health.Interval),
			zap.String("api", d.cfg.API.BaseURL),
			zap.String("cache", d.cfg.Health.CachePath),
			zap.Bool("notify", d.cfg.Health.Notify),
		)

		view.Mount(ctx, tenant)
		defer view.Unmount()

		// an explicit tenant argument pins the view
		if len(args) == 0 {
			stopReload := watchAndReload(ctx, cfgPath, d.log, view)
			defer stopReload()
		}

		go readKeys(ctx, os.Stdin, view, out, cancel)

		<-ctx.Done()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

// readKeys drives the view from line input until q or EOF.
func readKeys(ctx context.Context, in io.Reader, view *application.TenantView, out *printer, quit func()) {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		switch strings.TrimSpace(strings.ToLower(sc.Text())) {
		case "t":
			go func() {
				if _, err := view.Toggle(ctx); err != nil {
					if errors.Is(err, domain.ErrToggleInFlight) {
						out.println("toggle already in progress")
						return
					}
					out.println("toggle failed:", err)
				}
			}()
		case "q":
			quit()
			return
		case "":
		default:
			out.println("keys: t = toggle pipeline, q = quit")
		}
	}
	// stdin closed (e.g. running under a service manager): keep polling
}

// watchAndReload follows view.tenant in the config file and switches the
// mounted view when it changes. The returned stop waits for the watcher to
// exit and cancels any pending reload.
func watchAndReload(ctx context.Context, path string, log *zap.Logger, view *application.TenantView) (stop func()) {
	noop := func() {}
	if path == "" {
		return noop
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn("fsnotify init failed", zap.Error(err))
		return noop
	}
	if err := w.Add(dir); err != nil {
		log.Warn("fsnotify add dir failed", zap.String("dir", dir), zap.Error(err))
		_ = w.Close()
		return noop
	}

	ctx, cancel := context.WithCancel(ctx)

	reload := func() {
		if ctx.Err() != nil {
			return
		}
		cfg, err := config.Load(path)
		if err != nil {
			log.Warn("config reload failed", zap.Error(err))
			return
		}
		next := domain.TenantID(cfg.View.Tenant)
		if next == "" || next == view.Tenant() {
			return
		}
		log.Info("config reload: tenant changed", zap.String("tenant", string(next)))
		view.Switch(next)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() { _ = w.Close() }()

		var timer *time.Timer
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != base {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if timer == nil {
					timer = time.AfterFunc(reloadDebounce, reload)
				} else {
					timer.Reset(reloadDebounce)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn("fsnotify error", zap.Error(err))
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
