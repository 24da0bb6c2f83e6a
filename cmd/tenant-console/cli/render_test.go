package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/davarch/tenant-console/internal/application"
	"github.com/davarch/tenant-console/internal/domain"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func init() { color.NoColor = true }

func TestFormatHealth(t *testing.T) {
	snap := domain.HealthSnapshot{Status: domain.HealthRed, LastError: "timeout"}
	got := formatHealth(application.HealthView{Tenant: "7", Phase: application.PhaseReady, Snapshot: &snap})
	assert.True(t, strings.HasPrefix(got, "[7] ✗ red"), got)
	assert.Contains(t, got, "last error: timeout")

	got = formatHealth(application.HealthView{Tenant: "7", Phase: application.PhaseError})
	assert.Contains(t, got, "failed to load health data")

	purple := domain.HealthSnapshot{Status: "purple"}
	got = formatHealth(application.HealthView{Tenant: "7", Phase: application.PhaseReady, Snapshot: &purple})
	assert.Contains(t, got, "? purple")
	assert.Contains(t, got, "no errors detected")
}

func TestFormatControl(t *testing.T) {
	assert.Equal(t, "[7] pipeline Stopped  [Start Pipeline]", formatControl(application.ControlView{Tenant: "7"}))
	assert.Equal(t, "[7] pipeline Running  [Processing...]", formatControl(application.ControlView{Tenant: "7", State: domain.Running, Toggling: true}))
}

func TestPrinter_SkipsLoadingAndDuplicates(t *testing.T) {
	var buf bytes.Buffer
	p := &printer{out: &buf}

	snap := domain.HealthSnapshot{Status: domain.HealthGreen}
	at := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	p.health(application.HealthView{Tenant: "7", Phase: application.PhaseLoading})
	p.health(application.HealthView{Tenant: "7", Phase: application.PhaseReady, Snapshot: &snap, LastUpdated: at})
	p.health(application.HealthView{Tenant: "7", Phase: application.PhaseReady, Snapshot: &snap, LastUpdated: at})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 1)
}

func TestLoginNavigator_WarnsOnce(t *testing.T) {
	var buf bytes.Buffer
	n := newLoginNavigator(&buf)
	n.Navigate("/login")
	n.Navigate("/login")

	assert.Equal(t, 1, strings.Count(buf.String(), "tenant-console login"))
}

func TestMatchTenants(t *testing.T) {
	ts := []domain.Tenant{{ID: "7", Name: "Acme"}, {ID: "71", Name: "Beta"}, {ID: "8", Name: "Gamma"}}

	assert.Equal(t, []string{"7\tAcme", "71\tBeta"}, matchTenants(ts, "7"))
	assert.Equal(t, []string{"7\tAcme", "71\tBeta", "8\tGamma"}, matchTenants(ts, ""))
	assert.Empty(t, matchTenants(ts, "710"))
}
