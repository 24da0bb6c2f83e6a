package application

import (
	"context"
	"errors"
	"sync"

	"github.com/davarch/tenant-console/internal/domain"
	"go.uber.org/zap"
)

var ErrNotMounted = errors.New("no tenant mounted")

// TenantView is one mounted console view: a pipeline control and a health
// cycle bound to the same tenant. Switching tenants replaces both; output
// from the previous tenant never reaches the observers again.
type TenantView struct {
	log       *zap.Logger
	pipelines domain.PipelineAPI
	monitor   *HealthMonitor
	onControl func(ControlView)

	switchMu sync.Mutex

	mu        sync.Mutex
	parent    context.Context
	tenant    domain.TenantID
	control   *PipelineControl
	cancel    context.CancelFunc
	unmounted bool
}

func NewTenantView(l *zap.Logger, pipelines domain.PipelineAPI, monitor *HealthMonitor, onControl func(ControlView)) *TenantView {
	return &TenantView{log: l, pipelines: pipelines, monitor: monitor, onControl: onControl}
}

// Mount binds the view to tenant under ctx and runs the initial status read.
// A failed read is logged; the view stays usable with the default state.
func (v *TenantView) Mount(ctx context.Context, tenant domain.TenantID) {
	v.mu.Lock()
	v.parent = ctx
	v.unmounted = false
	v.mu.Unlock()
	v.Switch(tenant)
}

// Switch rebinds a mounted view. Switching to the current tenant, or any
// switch after Unmount, is a no-op.
func (v *TenantView) Switch(tenant domain.TenantID) {
	v.switchMu.Lock()
	defer v.switchMu.Unlock()

	v.mu.Lock()
	if v.unmounted {
		v.mu.Unlock()
		v.log.Debug("switch after unmount ignored", zap.String("tenant", string(tenant)))
		return
	}
	if v.control != nil && v.tenant == tenant {
		v.mu.Unlock()
		return
	}
	parent := v.parent
	if parent == nil {
		parent = context.Background()
	}
	if v.cancel != nil {
		v.cancel()
	}
	ctx, cancel := context.WithCancel(parent)

	var ctrl *PipelineControl
	ctrl = NewPipelineControl(v.log, v.pipelines, tenant, func(cv ControlView) {
		if v.current() == ctrl && v.onControl != nil {
			v.onControl(cv)
		}
	})
	prev := v.tenant
	v.tenant = tenant
	v.control = ctrl
	v.cancel = cancel
	v.mu.Unlock()

	if prev != "" {
		v.log.Info("tenant switched", zap.String("from", string(prev)), zap.String("to", string(tenant)))
	}

	v.monitor.Start(ctx, tenant)

	if v.onControl != nil {
		v.onControl(ctrl.View())
	}
	_ = ctrl.Load(ctx)
}

func (v *TenantView) current() *PipelineControl {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.control
}

func (v *TenantView) Tenant() domain.TenantID {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.tenant
}

func (v *TenantView) Control() (ControlView, bool) {
	c := v.current()
	if c == nil {
		return ControlView{}, false
	}
	return c.View(), true
}

func (v *TenantView) Health() HealthView {
	return v.monitor.View()
}

func (v *TenantView) Toggle(ctx context.Context) (domain.RunState, error) {
	c := v.current()
	if c == nil {
		return domain.Stopped, ErrNotMounted
	}
	return c.Toggle(ctx)
}

// Unmount stops the health cycle and detaches the control.
func (v *TenantView) Unmount() {
	v.switchMu.Lock()
	defer v.switchMu.Unlock()

	v.monitor.Stop()

	v.mu.Lock()
	if v.cancel != nil {
		v.cancel()
	}
	v.cancel = nil
	v.control = nil
	v.tenant = ""
	v.parent = nil
	v.unmounted = true
	v.mu.Unlock()
}
