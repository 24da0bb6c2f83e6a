package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/davarch/tenant-console/internal/application"
	"github.com/davarch/tenant-console/internal/domain"
	"github.com/fatih/color"
)

func markerColor(m domain.Marker) *color.Color {
	switch m {
	case domain.MarkerOK:
		return color.New(color.FgGreen)
	case domain.MarkerWarning:
		return color.New(color.FgYellow)
	case domain.MarkerFailure:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgHiBlack)
	}
}

func stateColor(s domain.RunState) *color.Color {
	if s == domain.Running {
		return color.New(color.FgGreen)
	}
	return color.New(color.FgRed)
}

func formatSnapshot(s domain.HealthSnapshot) string {
	m := domain.StatusToPresentation(s.Status)

	var b strings.Builder
	b.WriteString(markerColor(m).Sprintf("%s %s", m.Symbol(), statusLabel(s.Status)))
	if !s.LastSyncTime.IsZero() {
		b.WriteString("  last sync " + s.LastSyncTime.Local().Format("2006-01-02 15:04:05"))
	}
	if s.LastError != "" {
		b.WriteString("  last error: " + s.LastError)
	} else {
		b.WriteString("  no errors detected")
	}
	return b.String()
}

func statusLabel(s domain.HealthStatus) string {
	if s == "" {
		return string(domain.HealthUnknown)
	}
	return string(s)
}

func formatHealth(v application.HealthView) string {
	prefix := "[" + string(v.Tenant) + "] "
	switch {
	case v.Phase == application.PhaseError:
		return prefix + color.RedString("failed to load health data, retrying")
	case v.Snapshot == nil:
		return prefix + "loading health..."
	}

	line := prefix + formatSnapshot(*v.Snapshot)
	if !v.LastUpdated.IsZero() {
		line += "  (updated " + v.LastUpdated.Format("15:04:05") + ")"
	}
	return line
}

func formatControl(v application.ControlView) string {
	return fmt.Sprintf("[%s] pipeline %s  [%s]",
		v.Tenant, stateColor(v.State).Sprint(v.State), v.ActionLabel())
}

// printer serializes view updates coming from the poll goroutine and the
// toggle goroutines.
type printer struct {
	mu  sync.Mutex
	out io.Writer

	lastHealth string
}

func (p *printer) health(v application.HealthView) {
	// loading frames only flicker in a line-oriented terminal
	if v.Phase == application.PhaseIdle || v.Phase == application.PhaseLoading {
		return
	}
	line := formatHealth(v)

	p.mu.Lock()
	defer p.mu.Unlock()
	if line == p.lastHealth {
		return
	}
	p.lastHealth = line
	_, _ = fmt.Fprintln(p.out, line)
}

func (p *printer) control(v application.ControlView) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintln(p.out, formatControl(v))
}

func (p *printer) println(a ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintln(p.out, a...)
}
