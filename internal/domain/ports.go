package domain

import "context"

type PipelineAPI interface {
	PipelineStatus(ctx context.Context, tenant TenantID) (RunState, error)
	SetPipelineStatus(ctx context.Context, tenant TenantID, state RunState) error
}

type HealthAPI interface {
	Health(ctx context.Context, tenant TenantID) (HealthSnapshot, error)
}

// SessionStore holds the process-wide bearer credential. Any request may clear it.
type SessionStore interface {
	Token() (string, bool)
	SetToken(token string) error
	Clear() error
}

type Navigator interface {
	Navigate(path string)
}

type Notifier interface {
	Notify(ctx context.Context, title, body, url string) error
}

// UrgencyNotifier is implemented by notifiers that can flag a message as
// critical. Callers fall back to Notify when it is absent.
type UrgencyNotifier interface {
	NotifyUrgency(ctx context.Context, title, body, url string, critical bool) error
}

type SnapshotSink interface {
	Write(ctx context.Context, s Snapshot) error
}
