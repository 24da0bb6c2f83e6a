package domain

import (
	"errors"
	"time"
)

var (
	ErrAuthRejected   = errors.New("authentication rejected")
	ErrToggleInFlight = errors.New("toggle already in flight")
	ErrNoSession      = errors.New("no session credential")
)

// TenantID is the opaque key scoping every pipeline and health call.
type TenantID string

type HealthStatus string

const (
	HealthGreen   HealthStatus = "green"
	HealthYellow  HealthStatus = "yellow"
	HealthRed     HealthStatus = "red"
	HealthUnknown HealthStatus = "unknown"
)

// HealthSnapshot is replaced wholesale on every successful poll, never merged.
type HealthSnapshot struct {
	Status       HealthStatus
	LastSyncTime time.Time
	LastError    string
}

type RunState bool

const (
	Stopped RunState = false
	Running RunState = true
)

func (s RunState) String() string {
	if s {
		return "Running"
	}
	return "Stopped"
}

type Tenant struct {
	ID        TenantID `json:"id"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Timezone  string   `json:"timezone"`
	CreatedAt string   `json:"created_at,omitempty"`
}

type NewTenant struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Timezone string `json:"timezone"`
}

const DefaultSourcePort = 5432

type SourceConfig struct {
	Host     string `json:"db_host"`
	Port     int    `json:"db_port"`
	Username string `json:"db_username"`
	Password string `json:"db_password"`
}

// Snapshot is a health snapshot as handed to sinks.
type Snapshot struct {
	Tenant    TenantID
	Health    HealthSnapshot
	Retrieved int64
}
