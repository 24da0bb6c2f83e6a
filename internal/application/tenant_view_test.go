package application_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/davarch/tenant-console/internal/application"
	"github.com/davarch/tenant-console/internal/domain"
	"github.com/davarch/tenant-console/internal/infrastructure/console_http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeConsole is a tiny in-process pipeline service for tenant 7.
type fakeConsole struct {
	mu         sync.Mutex
	active     bool
	failWrites bool
	failHealth bool
	healthHits int32
}

func (f *fakeConsole) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.URL.Path == "/tenants/7/pipeline/" && r.Method == http.MethodGet:
		_ = json.NewEncoder(w).Encode(map[string]bool{"is_active": f.active})
	case r.URL.Path == "/tenants/7/pipeline/" && r.Method == http.MethodPost:
		if f.failWrites {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		var body struct {
			IsActive bool `json:"is_active"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.active = body.IsActive
	case r.URL.Path == "/health/7":
		atomic.AddInt32(&f.healthHits, 1)
		if f.failHealth {
			// drop the connection to look like a network failure
			hj, ok := w.(http.Hijacker)
			if ok {
				if conn, _, err := hj.Hijack(); err == nil {
					_ = conn.Close()
					return
				}
			}
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"status":"red","last_sync_time":"2024-01-01T00:00:00Z","last_error":"timeout"}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeConsole) set(fn func(*fakeConsole)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func TestTenantView_ToggleAndHealthScenario(t *testing.T) {
	fake := &fakeConsole{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	api := console_http.New(console_http.NewGateway(srv.URL, 0, domain.NewMockSession("tok"), &domain.MockNavigator{}, nil))
	mon := application.NewHealthMonitor(zap.NewNop(), api, 10*time.Millisecond)
	view := application.NewTenantView(zap.NewNop(), api, mon, nil)

	view.Mount(context.Background(), "7")
	defer view.Unmount()

	cv, ok := view.Control()
	require.True(t, ok)
	assert.Equal(t, "Stopped", cv.State.String())

	st, err := view.Toggle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Running", st.String())

	fake.set(func(f *fakeConsole) { f.failWrites = true })
	st, err = view.Toggle(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Running", st.String())
	cv, _ = view.Control()
	assert.False(t, cv.Toggling)

	require.Eventually(t, func() bool { return view.Health().Snapshot != nil }, time.Second, time.Millisecond)
	assert.Equal(t, domain.MarkerFailure, view.Health().Marker())

	fake.set(func(f *fakeConsole) { f.failHealth = true })
	hits := atomic.LoadInt32(&fake.healthHits)
	require.Eventually(t, func() bool { return atomic.LoadInt32(&fake.healthHits) >= hits+2 }, time.Second, time.Millisecond)

	h := view.Health()
	require.NotNil(t, h.Snapshot)
	assert.Equal(t, domain.HealthRed, h.Snapshot.Status)
	assert.Equal(t, "timeout", h.Snapshot.LastError)
}

func TestTenantView_SwitchSilencesOldControl(t *testing.T) {
	pipelines := &domain.MockPipeline{State: domain.Running}
	health := &domain.MockHealth{}
	mon := application.NewHealthMonitor(zap.NewNop(), health, time.Hour)

	var mu sync.Mutex
	var seen []domain.TenantID
	view := application.NewTenantView(zap.NewNop(), pipelines, mon, func(cv application.ControlView) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, cv.Tenant)
	})

	view.Mount(context.Background(), "A")
	view.Switch("A")
	view.Switch("B")
	defer view.Unmount()

	assert.Equal(t, domain.TenantID("B"), view.Tenant())
	assert.Equal(t, domain.TenantID("B"), view.Health().Tenant)
	assert.Equal(t, 2, pipelines.Reads, "switching to the same tenant must not reload")

	mu.Lock()
	defer mu.Unlock()
	last := seen[len(seen)-1]
	assert.Equal(t, domain.TenantID("B"), last)
}

func TestTenantView_ToggleBeforeMount(t *testing.T) {
	mon := application.NewHealthMonitor(zap.NewNop(), &domain.MockHealth{}, time.Hour)
	view := application.NewTenantView(zap.NewNop(), &domain.MockPipeline{}, mon, nil)

	_, err := view.Toggle(context.Background())
	assert.ErrorIs(t, err, application.ErrNotMounted)
}

func TestTenantView_SwitchAfterUnmountIsIgnored(t *testing.T) {
	pipelines := &domain.MockPipeline{}
	health := &domain.MockHealth{}
	mon := application.NewHealthMonitor(zap.NewNop(), health, time.Hour)
	view := application.NewTenantView(zap.NewNop(), pipelines, mon, nil)

	view.Mount(context.Background(), "A")
	view.Unmount()
	view.Switch("B")

	assert.Equal(t, domain.TenantID(""), view.Tenant())
	_, ok := view.Control()
	assert.False(t, ok)
	assert.Equal(t, 1, pipelines.ReadCount(), "only the mount read happened")
	assert.Equal(t, 0, health.Calls("B"))

	// a later Mount brings the view back
	view.Mount(context.Background(), "B")
	defer view.Unmount()
	assert.Equal(t, domain.TenantID("B"), view.Tenant())
}
