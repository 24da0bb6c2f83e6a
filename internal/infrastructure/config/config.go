package config

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL  = "http://localhost:8000"
	DefaultInterval = 5 * time.Second
)

type Config struct {
	API struct {
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout,omitempty"`
	} `yaml:"api"`

	Session struct {
		Path string `yaml:"path"`
	} `yaml:"session"`

	Health struct {
		Interval    time.Duration `yaml:"interval"`
		CachePath   string        `yaml:"cache_path"`
		HistoryPath string        `yaml:"history_path"`
		Notify      bool          `yaml:"notify"`
		NotifyRate  time.Duration `yaml:"notify_rate,omitempty"`
	} `yaml:"health"`

	View struct {
		Tenant string `yaml:"tenant,omitempty"`
	} `yaml:"view"`

	Log struct {
		Level string `yaml:"level,omitempty"`
	} `yaml:"log"`

	// Token is only ever taken from the environment and never saved.
	Token string `yaml:"-"`
}

func Load(path string) (Config, error) {
	var c Config

	c.API.BaseURL = DefaultBaseURL
	c.Session.Path = defaultSessionPath()
	c.Health.Interval = DefaultInterval
	c.Health.CachePath = expandHome("~/.cache/tenant_health.json")
	c.Health.HistoryPath = expandHome("~/.local/share/tenant-console/history.db")
	c.Health.NotifyRate = 30 * time.Second
	c.Log.Level = "info"

	if path != "" {
		if b, err := os.ReadFile(path); err == nil {
			if err := yaml.Unmarshal(b, &c); err != nil {
				return c, err
			}
		}
	}

	if v := os.Getenv("CONSOLE_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}

	if v := os.Getenv("CONSOLE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.API.Timeout = d
		}
	}

	if v := os.Getenv("CONSOLE_TOKEN"); v != "" {
		c.Token = v
	}

	if v := os.Getenv("CONSOLE_SESSION_PATH"); v != "" {
		c.Session.Path = v
	}

	if v := os.Getenv("HEALTH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Health.Interval = d
		}
	}

	if v := os.Getenv("HEALTH_NOTIFY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Health.Notify = b
		}
	}

	if v := os.Getenv("CACHE_PATH"); v != "" {
		c.Health.CachePath = v
	}

	if v := os.Getenv("HISTORY_PATH"); v != "" {
		c.Health.HistoryPath = v
	}

	c.View.Tenant = getenv("CONSOLE_TENANT", c.View.Tenant)
	c.Log.Level = getenv("LOG_LEVEL", c.Log.Level)

	c.Session.Path = expandHome(c.Session.Path)
	c.Health.CachePath = expandHome(c.Health.CachePath)
	c.Health.HistoryPath = expandHome(c.Health.HistoryPath)
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")

	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}

	if c.Health.Interval <= 0 {
		c.Health.Interval = DefaultInterval
	}

	if c.API.Timeout < 0 {
		c.API.Timeout = 0
	}

	if c.Health.NotifyRate <= 0 {
		c.Health.NotifyRate = 30 * time.Second
	}

	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return c, errors.New("api.base_url must be an absolute URL")
	}

	return c, nil
}

func Save(path string, c Config) error {
	if path == "" {
		return errors.New("empty config path")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	lockFile := path + ".lock"
	lf, err := os.OpenFile(lockFile, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return err
	}
	defer func() { _ = lf.Close() }()

	if runtime.GOOS != "windows" {
		if err := syscall.Flock(int(lf.Fd()), syscall.LOCK_EX); err != nil {
			return err
		}
		defer func() { _ = syscall.Flock(int(lf.Fd()), syscall.LOCK_UN) }()
	}

	b, err := yaml.Marshal(&c)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	defer func() { _ = f.Close() }()

	if _, err := f.Write(b); err != nil {
		return err
	}

	if err := f.Sync(); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}

// defaultSessionPath mirrors the XDG layout used for CLI tokens.
func defaultSessionPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		dir = "~/.config"
	}
	return filepath.Join(expandHome(dir), "tenant-console", "token")
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func expandHome(p string) string {
	if strings.HasPrefix(p, "~/") {
		if h, _ := os.UserHomeDir(); h != "" {
			return h + p[1:]
		}
	}
	return p
}
