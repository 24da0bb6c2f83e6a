package domain

import (
	"context"
	"sync"
)

type MockPipeline struct {
	mu sync.Mutex

	State    RunState
	ReadErr  error
	WriteErr error
	// Gate, when set, holds every SetPipelineStatus call until it is closed.
	Gate chan struct{}
	// ReadGate holds PipelineStatus calls until closed. The state returned is
	// the one at call time, like a response already on the wire.
	ReadGate chan struct{}

	Reads  int
	Writes []RunState
}

func (m *MockPipeline) PipelineStatus(ctx context.Context, tenant TenantID) (RunState, error) {
	m.mu.Lock()
	m.Reads++
	st, err, gate := m.State, m.ReadErr, m.ReadGate
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return Stopped, err
	}
	return st, nil
}

func (m *MockPipeline) ReadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Reads
}

func (m *MockPipeline) SetPipelineStatus(ctx context.Context, tenant TenantID, state RunState) error {
	m.mu.Lock()
	gate := m.Gate
	m.Writes = append(m.Writes, state)
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.State = state
	return nil
}

func (m *MockPipeline) WriteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Writes)
}

type HealthResult struct {
	Snapshot HealthSnapshot
	Err      error
}

// MockHealth replays Results per tenant in order; the last result repeats.
type MockHealth struct {
	mu sync.Mutex

	Results map[TenantID][]HealthResult
	// Gates hold a tenant's calls until closed. A gated call ignores ctx so
	// tests can deliver a response after its cycle was cancelled.
	Gates map[TenantID]chan struct{}

	calls       map[TenantID]int
	inFlight    int
	MaxInFlight int
}

func (m *MockHealth) Health(ctx context.Context, tenant TenantID) (HealthSnapshot, error) {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = make(map[TenantID]int)
	}
	n := m.calls[tenant]
	m.calls[tenant]++
	m.inFlight++
	if m.inFlight > m.MaxInFlight {
		m.MaxInFlight = m.inFlight
	}
	gate := m.Gates[tenant]
	var res HealthResult
	if rs := m.Results[tenant]; len(rs) > 0 {
		if n >= len(rs) {
			n = len(rs) - 1
		}
		res = rs[n]
	}
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}

	m.mu.Lock()
	m.inFlight--
	m.mu.Unlock()
	return res.Snapshot, res.Err
}

func (m *MockHealth) Calls(tenant TenantID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[tenant]
}

func (m *MockHealth) MaxConcurrent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.MaxInFlight
}

type MockSession struct {
	mu    sync.Mutex
	token string
}

func NewMockSession(token string) *MockSession { return &MockSession{token: token} }

func (s *MockSession) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.token != ""
}

func (s *MockSession) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MockSession) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

type MockNavigator struct {
	mu    sync.Mutex
	Paths []string
}

func (n *MockNavigator) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Paths = append(n.Paths, path)
}

func (n *MockNavigator) Visited() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.Paths...)
}

type MockNotifier struct {
	mu       sync.Mutex
	Messages []string
	Critical []bool
	Err      error
}

func (n *MockNotifier) Notify(ctx context.Context, title, body, url string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Messages = append(n.Messages, title+"|"+body+"|"+url)
	return n.Err
}

func (n *MockNotifier) NotifyUrgency(ctx context.Context, title, body, url string, critical bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Messages = append(n.Messages, title+"|"+body+"|"+url)
	n.Critical = append(n.Critical, critical)
	return n.Err
}

func (n *MockNotifier) Urgencies() []bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]bool(nil), n.Critical...)
}

func (n *MockNotifier) Sent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.Messages...)
}

type MockCache struct {
	mu        sync.Mutex
	Snapshots []Snapshot
	Err       error
}

func (c *MockCache) Write(ctx context.Context, s Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.Snapshots = append(c.Snapshots, s)
	return nil
}

func (c *MockCache) Written() []Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Snapshot(nil), c.Snapshots...)
}
