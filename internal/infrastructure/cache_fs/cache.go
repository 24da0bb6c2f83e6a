package cache_fs

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/davarch/tenant-console/internal/domain"
)

// FSCache writes the latest applied snapshot as JSON for status bars.
type FSCache struct {
	path string
}

func New(path string) *FSCache { return &FSCache{path: path} }

type entry struct {
	Tenant       string `json:"tenant"`
	Status       string `json:"status"`
	Marker       string `json:"marker"`
	Symbol       string `json:"symbol"`
	LastSyncTime string `json:"last_sync_time,omitempty"`
	LastError    string `json:"last_error,omitempty"`
	Retrieved    int64  `json:"retrieved"`
}

func (c *FSCache) Write(_ context.Context, s domain.Snapshot) error {
	if c.path == "" {
		return errors.New("cache path is empty")
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}

	m := domain.StatusToPresentation(s.Health.Status)
	out := entry{
		Tenant:    string(s.Tenant),
		Status:    string(s.Health.Status),
		Marker:    m.String(),
		Symbol:    m.Symbol(),
		LastError: s.Health.LastError,
		Retrieved: s.Retrieved,
	}
	if !s.Health.LastSyncTime.IsZero() {
		out.LastSyncTime = s.Health.LastSyncTime.Format(time.RFC3339)
	}

	// write-then-rename so readers never see a half-written file
	tmp := c.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	return os.Rename(tmp, c.path)
}
