package notify_libnotify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNotify_RateLimited(t *testing.T) {
	var calls [][]string
	n := New().Limited(time.Hour)
	n.run = func(_ context.Context, args []string) error {
		calls = append(calls, args)
		return nil
	}

	for i := 0; i < 3; i++ {
		if err := n.Notify(context.Background(), "title", "body", ""); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if len(calls) != 1 {
		t.Fatalf("expected 1 notify-send call, got %d", len(calls))
	}
	if calls[0][0] != "--app-name=tenant-console" {
		t.Errorf("unexpected args: %v", calls[0])
	}
}

func TestNotifyWith_OptionsAndURL(t *testing.T) {
	var got []string
	n := New()
	n.run = func(_ context.Context, args []string) error {
		got = args
		return nil
	}

	err := n.NotifyWith(context.Background(), "t", "b", "http://x", Options{Urgency: "critical", Expire: 2 * time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"--app-name=tenant-console", "--urgency=critical", "--expire-time=2000", "t", "b\nhttp://x"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("arg %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestNotify_SoftSwallowsErrors(t *testing.T) {
	fail := func(context.Context, []string) error { return errors.New("no notify-send") }

	soft := NewSoft()
	soft.run = fail
	if err := soft.Notify(context.Background(), "t", "b", ""); err != nil {
		t.Errorf("soft notifier returned %v", err)
	}

	hard := New()
	hard.run = fail
	if err := hard.Notify(context.Background(), "t", "b", ""); err == nil {
		t.Error("expected error from strict notifier")
	}
}

func TestNotifyUrgency(t *testing.T) {
	var calls [][]string
	n := New()
	n.run = func(_ context.Context, args []string) error {
		calls = append(calls, args)
		return nil
	}

	if err := n.NotifyUrgency(context.Background(), "t", "b", "http://api/health/7", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := n.NotifyUrgency(context.Background(), "t", "b", "", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := [][]string{
		{"--app-name=tenant-console", "--urgency=critical", "t", "b\nhttp://api/health/7"},
		{"--app-name=tenant-console", "--urgency=normal", "--expire-time=10000", "t", "b"},
	}
	if len(calls) != len(want) {
		t.Fatalf("expected %d calls, got %v", len(want), calls)
	}
	for i := range want {
		if strings.Join(calls[i], " ") != strings.Join(want[i], " ") {
			t.Errorf("call %d: expected %q, got %q", i, want[i], calls[i])
		}
	}
}
