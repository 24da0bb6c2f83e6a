package notify_libnotify

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

type Notifier struct {
	soft    bool
	limiter *rate.Limiter
	run     func(ctx context.Context, args []string) error
}

func New() *Notifier     { return &Notifier{soft: false, run: notifySend} }
func NewSoft() *Notifier { return &Notifier{soft: true, run: notifySend} }

// Limited drops notifications beyond one per every; a burst of one keeps a
// flapping pipeline from flooding the desktop.
func (n *Notifier) Limited(every time.Duration) *Notifier {
	if every > 0 {
		n.limiter = rate.NewLimiter(rate.Every(every), 1)
	}
	return n
}

const normalExpire = 10 * time.Second

type Options struct {
	Urgency string
	Expire  time.Duration
}

func (n *Notifier) Notify(ctx context.Context, title, body, url string) error {
	return n.NotifyWith(ctx, title, body, url, Options{})
}

// NotifyUrgency sends critical messages without a timeout so they stay until
// dismissed; everything else expires.
func (n *Notifier) NotifyUrgency(ctx context.Context, title, body, url string, critical bool) error {
	if critical {
		return n.NotifyWith(ctx, title, body, url, Options{Urgency: "critical"})
	}
	return n.NotifyWith(ctx, title, body, url, Options{Urgency: "normal", Expire: normalExpire})
}

func (n *Notifier) NotifyWith(ctx context.Context, title, body, url string, opt Options) error {
	if n.limiter != nil && !n.limiter.Allow() {
		return nil
	}

	if strings.TrimSpace(url) != "" {
		if body == "" {
			body = url
		} else {
			body = body + "\n" + url
		}
	}

	args := []string{"--app-name=tenant-console"}
	if opt.Urgency != "" {
		args = append(args, "--urgency="+opt.Urgency)
	}
	if opt.Expire > 0 {
		ms := strconv.Itoa(int(opt.Expire / time.Millisecond))
		args = append(args, "--expire-time="+ms)
	}
	args = append(args, title, body)

	if err := n.run(ctx, args); err != nil {
		if n.soft {
			return nil
		}
		return err
	}

	return nil
}

func notifySend(ctx context.Context, args []string) error {
	return exec.CommandContext(ctx, "notify-send", args...).Run()
}
