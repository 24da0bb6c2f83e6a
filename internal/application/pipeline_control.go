package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/davarch/tenant-console/internal/domain"
	"go.uber.org/zap"
)

type ControlView struct {
	Tenant   domain.TenantID
	State    domain.RunState
	Toggling bool
}

// ActionLabel is what the toggle control reads right now.
func (v ControlView) ActionLabel() string {
	switch {
	case v.Toggling:
		return "Processing..."
	case v.State == domain.Running:
		return "Stop Pipeline"
	default:
		return "Start Pipeline"
	}
}

// PipelineControl owns one tenant's run state. The state only ever moves to
// a value the server accepted; a failed write leaves it untouched.
type PipelineControl struct {
	log     *zap.Logger
	api     domain.PipelineAPI
	tenant  domain.TenantID
	observe func(ControlView)

	mu       sync.Mutex
	state    domain.RunState
	toggling bool
	// gen moves on every toggle; a read that started under an older gen
	// may describe a state the server has since replaced.
	gen uint64
}

func NewPipelineControl(l *zap.Logger, api domain.PipelineAPI, tenant domain.TenantID, observe func(ControlView)) *PipelineControl {
	return &PipelineControl{
		log:     l.With(zap.String("tenant", string(tenant))),
		api:     api,
		tenant:  tenant,
		observe: observe,
		state:   domain.Stopped,
	}
}

func (c *PipelineControl) View() ControlView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *PipelineControl) viewLocked() ControlView {
	return ControlView{Tenant: c.tenant, State: c.state, Toggling: c.toggling}
}

func (c *PipelineControl) emit(v ControlView) {
	if c.observe != nil {
		c.observe(v)
	}
}

// Load reads the current run state. On failure the last known state stays
// in place; the error is logged and returned for callers that care. A read
// that overlaps a toggle is discarded: the toggle's outcome is newer.
func (c *PipelineControl) Load(ctx context.Context) error {
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	st, err := c.api.PipelineStatus(ctx, c.tenant)
	if err != nil {
		c.log.Warn("pipeline status read failed", zap.Error(err))
		return fmt.Errorf("read pipeline status: %w", err)
	}

	c.mu.Lock()
	if c.gen != gen || c.toggling {
		c.mu.Unlock()
		c.log.Debug("stale pipeline status dropped", zap.Stringer("read", st))
		return nil
	}
	c.state = st
	v := c.viewLocked()
	c.mu.Unlock()

	c.log.Debug("pipeline status loaded", zap.Stringer("state", st))
	c.emit(v)
	return nil
}

// Toggle asks the server for the opposite run state and commits it only on
// success. It returns the state in effect afterwards. A second Toggle while
// one is in flight returns domain.ErrToggleInFlight without a request.
func (c *PipelineControl) Toggle(ctx context.Context) (domain.RunState, error) {
	c.mu.Lock()
	if c.toggling {
		st := c.state
		c.mu.Unlock()
		return st, domain.ErrToggleInFlight
	}
	c.toggling = true
	c.gen++
	desired := !c.state
	v := c.viewLocked()
	c.mu.Unlock()
	c.emit(v)

	err := c.api.SetPipelineStatus(ctx, c.tenant, desired)

	c.mu.Lock()
	if err == nil {
		c.state = desired
	}
	c.toggling = false
	st := c.state
	v = c.viewLocked()
	c.mu.Unlock()
	c.emit(v)

	if err != nil {
		c.log.Warn("pipeline toggle failed",
			zap.Stringer("attempted", desired),
			zap.Stringer("kept", st),
			zap.Error(err),
		)
		return st, fmt.Errorf("toggle pipeline: %w", err)
	}

	c.log.Info("pipeline toggled", zap.Stringer("state", st))
	return st, nil
}
