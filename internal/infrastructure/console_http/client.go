package console_http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/davarch/tenant-console/internal/domain"
)

// Client is the typed console API on top of the Gateway.
type Client struct {
	gw *Gateway
}

func New(gw *Gateway) *Client { return &Client{gw: gw} }

type pipelineDTO struct {
	IsActive bool `json:"is_active"`
}

type healthDTO struct {
	Status       string  `json:"status"`
	LastSyncTime string  `json:"last_sync_time"`
	LastError    *string `json:"last_error"`
}

type tokenDTO struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func pipelinePath(t domain.TenantID) string {
	return "/tenants/" + url.PathEscape(string(t)) + "/pipeline/"
}

func healthPath(t domain.TenantID) string {
	return "/health/" + url.PathEscape(string(t))
}

// HealthURL is the absolute address of a tenant's health resource.
func (c *Client) HealthURL(tenant domain.TenantID) string {
	return c.gw.baseURL + healthPath(tenant)
}

func (c *Client) PipelineStatus(ctx context.Context, tenant domain.TenantID) (domain.RunState, error) {
	var out pipelineDTO
	if err := c.call(ctx, Request{Method: http.MethodGet, Path: pipelinePath(tenant)}, &out); err != nil {
		return domain.Stopped, err
	}
	return domain.RunState(out.IsActive), nil
}

func (c *Client) SetPipelineStatus(ctx context.Context, tenant domain.TenantID, state domain.RunState) error {
	return c.call(ctx, Request{
		Method: http.MethodPost,
		Path:   pipelinePath(tenant),
		Body:   pipelineDTO{IsActive: bool(state)},
	}, nil)
}

func (c *Client) Health(ctx context.Context, tenant domain.TenantID) (domain.HealthSnapshot, error) {
	var dto healthDTO
	r := Request{Method: http.MethodGet, Path: healthPath(tenant)}
	if err := c.call(ctx, r, &dto); err != nil {
		return domain.HealthSnapshot{}, err
	}

	synced, err := parseSyncTime(dto.LastSyncTime)
	if err != nil {
		return domain.HealthSnapshot{}, fmt.Errorf("decode %s %s: last_sync_time: %w", r.Method, r.Path, err)
	}

	out := domain.HealthSnapshot{
		Status:       domain.HealthStatus(dto.Status),
		LastSyncTime: synced,
	}
	if dto.LastError != nil {
		out.LastError = *dto.LastError
	}
	return out, nil
}

func (c *Client) ListTenants(ctx context.Context) ([]domain.Tenant, error) {
	var out []domain.Tenant
	if err := c.call(ctx, Request{Method: http.MethodGet, Path: "/tenants/"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateTenant(ctx context.Context, t domain.NewTenant) (domain.Tenant, error) {
	var out domain.Tenant
	err := c.call(ctx, Request{Method: http.MethodPost, Path: "/tenants/", Body: t}, &out)
	return out, err
}

func (c *Client) SaveSourceConfig(ctx context.Context, tenant domain.TenantID, sc domain.SourceConfig) error {
	if sc.Port == 0 {
		sc.Port = domain.DefaultSourcePort
	}
	return c.call(ctx, Request{
		Method: http.MethodPost,
		Path:   "/tenants/" + url.PathEscape(string(tenant)) + "/source-config/",
		Body:   sc,
	}, nil)
}

// Login exchanges operator credentials for a bearer token. The token is
// returned, not stored; the caller decides where it lives.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	var out tokenDTO
	err := c.call(ctx, Request{
		Method: http.MethodPost,
		Path:   "/token",
		Body:   strings.NewReader(form.Encode()),
		Header: http.Header{"Content-Type": {"application/x-www-form-urlencoded"}},
	}, &out)
	if err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("login: empty access_token")
	}
	return out.AccessToken, nil
}

// call treats a non-2xx status as an error and decodes the body into out
// when out is non-nil. A malformed body is an error like any other.
func (c *Client) call(ctx context.Context, r Request, out any) error {
	resp, err := c.gw.Do(ctx, r)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(r, resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", r.Method, r.Path, err)
	}
	return nil
}

// parseSyncTime accepts RFC 3339 and the offset-less ISO-8601 form some
// backends emit (datetime.isoformat()), read as UTC.
func parseSyncTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02T15:04:05.999999999", s, time.UTC)
}
