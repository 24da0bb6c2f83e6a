package application

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/davarch/tenant-console/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseReady
	// PhaseError means no snapshot was ever received for this cycle.
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseError:
		return "error"
	default:
		return "idle"
	}
}

type HealthView struct {
	Tenant      domain.TenantID
	CycleID     string
	Phase       Phase
	Snapshot    *domain.HealthSnapshot
	LastUpdated time.Time
}

func (v HealthView) Marker() domain.Marker {
	if v.Snapshot == nil {
		return domain.MarkerUnknown
	}
	return domain.StatusToPresentation(v.Snapshot.Status)
}

type MonitorOption func(*HealthMonitor)

func WithSinks(sinks ...domain.SnapshotSink) MonitorOption {
	return func(m *HealthMonitor) { m.sinks = append(m.sinks, sinks...) }
}

func WithNotifier(n domain.Notifier) MonitorOption {
	return func(m *HealthMonitor) { m.note = n }
}

// WithLink sets the URL attached to notifications for a tenant.
func WithLink(link func(domain.TenantID) string) MonitorOption {
	return func(m *HealthMonitor) { m.link = link }
}

func WithObserver(fn func(HealthView)) MonitorOption {
	return func(m *HealthMonitor) { m.observe = fn }
}

func WithClock(now func() time.Time) MonitorOption {
	return func(m *HealthMonitor) { m.now = now }
}

// WithPolicy replaces the constant re-arm delay. The policy is consulted
// after every completed fetch; backoff.Stop ends the cycle.
func WithPolicy(policy func() backoff.BackOff) MonitorOption {
	return func(m *HealthMonitor) { m.policy = policy }
}

// HealthMonitor runs at most one poll cycle at a time. Fetches inside a
// cycle never overlap: the next one is armed only after the previous one
// has been applied or dropped.
type HealthMonitor struct {
	log     *zap.Logger
	api     domain.HealthAPI
	policy  func() backoff.BackOff
	now     func() time.Time
	sinks   []domain.SnapshotSink
	note    domain.Notifier
	link    func(domain.TenantID) string
	observe func(HealthView)

	runMu sync.Mutex

	mu   sync.Mutex
	view HealthView
	cur  *cycle
	last map[domain.TenantID]domain.HealthStatus
}

type cycle struct {
	id     string
	tenant domain.TenantID
	cancel context.CancelFunc
	done   chan struct{}
}

func NewHealthMonitor(l *zap.Logger, api domain.HealthAPI, every time.Duration, opts ...MonitorOption) *HealthMonitor {
	m := &HealthMonitor{
		log:  l,
		api:  api,
		now:  time.Now,
		last: make(map[domain.TenantID]domain.HealthStatus),
		policy: func() backoff.BackOff {
			return backoff.NewConstantBackOff(every)
		},
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *HealthMonitor) View() HealthView {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view
}

// Start binds the monitor to tenant. Any running cycle is cancelled and has
// exited before the new one begins, so two cycles never coexist.
func (m *HealthMonitor) Start(ctx context.Context, tenant domain.TenantID) {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	m.stopLocked()

	cctx, cancel := context.WithCancel(ctx)
	c := &cycle{
		id:     uuid.NewString(),
		tenant: tenant,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	m.mu.Lock()
	m.cur = c
	m.view = HealthView{Tenant: tenant, CycleID: c.id, Phase: PhaseIdle}
	// transitions are tracked per mount; a fresh cycle starts with no baseline
	delete(m.last, tenant)
	v := m.view
	m.mu.Unlock()
	m.emit(v)

	m.log.Info("health cycle started",
		zap.String("tenant", string(tenant)),
		zap.String("cycle_id", c.id),
	)

	go m.run(cctx, c)
}

// Done is closed once the current cycle has exited, either because it was
// stopped or because its policy returned backoff.Stop.
func (m *HealthMonitor) Done() <-chan struct{} {
	m.mu.Lock()
	c := m.cur
	m.mu.Unlock()

	if c == nil {
		done := make(chan struct{})
		close(done)
		return done
	}
	return c.done
}

// Stop cancels the running cycle, if any, and waits for it to exit.
func (m *HealthMonitor) Stop() {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	m.stopLocked()
}

func (m *HealthMonitor) stopLocked() {
	m.mu.Lock()
	c := m.cur
	m.cur = nil
	m.mu.Unlock()

	if c == nil {
		return
	}
	c.cancel()
	<-c.done

	m.log.Debug("health cycle stopped",
		zap.String("tenant", string(c.tenant)),
		zap.String("cycle_id", c.id),
	)
}

func (m *HealthMonitor) run(ctx context.Context, c *cycle) {
	defer close(c.done)

	bo := m.policy()
	bo.Reset()

	for {
		m.fetch(ctx, c)

		d := bo.NextBackOff()
		if d == backoff.Stop {
			m.log.Debug("health cycle finished",
				zap.String("tenant", string(c.tenant)),
				zap.String("cycle_id", c.id),
			)
			return
		}

		t := time.NewTimer(d)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

func (m *HealthMonitor) fetch(ctx context.Context, c *cycle) {
	if !m.update(ctx, c, func(v *HealthView) { v.Phase = PhaseLoading }) {
		return
	}

	snap, err := m.api.Health(ctx, c.tenant)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		m.log.Warn("health poll failed",
			zap.String("tenant", string(c.tenant)),
			zap.Error(err),
		)
		m.update(ctx, c, func(v *HealthView) {
			if v.Snapshot == nil {
				v.Phase = PhaseError
			} else {
				v.Phase = PhaseReady
			}
		})
		return
	}

	now := m.now()
	applied := m.update(ctx, c, func(v *HealthView) {
		s := snap
		v.Snapshot = &s
		v.LastUpdated = now
		v.Phase = PhaseReady
	})
	if !applied {
		m.log.Debug("late health response dropped",
			zap.String("tenant", string(c.tenant)),
			zap.String("cycle_id", c.id),
		)
		return
	}

	if !domain.IsKnown(snap.Status) {
		m.log.Warn("unrecognized health status",
			zap.String("tenant", string(c.tenant)),
			zap.String("status", string(snap.Status)),
		)
	}

	m.publish(ctx, c.tenant, snap, now)
}

// update applies fn only while c is still the live cycle.
func (m *HealthMonitor) update(ctx context.Context, c *cycle, fn func(*HealthView)) bool {
	m.mu.Lock()
	if m.cur != c || ctx.Err() != nil {
		m.mu.Unlock()
		return false
	}
	fn(&m.view)
	v := m.view
	m.mu.Unlock()

	m.emit(v)
	return true
}

func (m *HealthMonitor) emit(v HealthView) {
	if m.observe != nil {
		m.observe(v)
	}
}

func (m *HealthMonitor) publish(ctx context.Context, tenant domain.TenantID, snap domain.HealthSnapshot, at time.Time) {
	for _, s := range m.sinks {
		if err := s.Write(ctx, domain.Snapshot{Tenant: tenant, Health: snap, Retrieved: at.Unix()}); err != nil {
			m.log.Warn("snapshot sink failed", zap.String("tenant", string(tenant)), zap.Error(err))
		}
	}

	m.mu.Lock()
	prev, seen := m.last[tenant]
	m.last[tenant] = snap.Status
	m.mu.Unlock()

	if m.note == nil || !seen || prev == snap.Status {
		return
	}

	title := titleFor(snap.Status)
	body := "Tenant " + string(tenant) + ": " + string(prev) + " → " + string(snap.Status)
	if snap.LastError != "" {
		body += " (" + snap.LastError + ")"
	}
	var url string
	if m.link != nil {
		url = m.link(tenant)
	}

	var err error
	if un, ok := m.note.(domain.UrgencyNotifier); ok {
		critical := domain.StatusToPresentation(snap.Status) == domain.MarkerFailure
		err = un.NotifyUrgency(ctx, title, body, url, critical)
	} else {
		err = m.note.Notify(ctx, title, body, url)
	}
	if err != nil {
		m.log.Debug("notify failed", zap.Error(err))
	}
}

func titleFor(s domain.HealthStatus) string {
	m := domain.StatusToPresentation(s)
	switch m {
	case domain.MarkerOK:
		return m.Symbol() + " pipeline: healthy"
	case domain.MarkerWarning:
		return m.Symbol() + " pipeline: degraded"
	case domain.MarkerFailure:
		return m.Symbol() + " pipeline: failing"
	default:
		return m.Symbol() + " pipeline: " + string(s)
	}
}
