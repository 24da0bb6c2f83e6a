package console_http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/davarch/tenant-console/internal/domain"
	"go.uber.org/zap"
)

// LoginPath is where the navigator is sent once the server rejects the credential.
const LoginPath = "/login"

// Request describes one outbound call. Body is JSON-encoded unless it is
// already an io.Reader.
type Request struct {
	Method string
	Path   string
	Body   any
	Header http.Header
}

// Gateway sends every request with the current session credential and
// handles authentication rejection in one place. It never retries.
type Gateway struct {
	baseURL string
	hc      *http.Client
	session domain.SessionStore
	nav     domain.Navigator
	log     *zap.Logger
}

// NewGateway builds a gateway with a cookie-carrying client. A zero timeout
// leaves only the transport-level dial and TLS limits in place.
func NewGateway(baseURL string, timeout time.Duration, session domain.SessionStore, nav domain.Navigator, log *zap.Logger) *Gateway {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		TLSHandshakeTimeout: 5 * time.Second,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
	}

	jar, _ := cookiejar.New(nil)

	return NewGatewayWithClient(baseURL, &http.Client{Transport: tr, Timeout: timeout, Jar: jar}, session, nav, log)
}

// NewGatewayWithClient sends through a copy of hc. The copy gets its own
// cookie jar when hc has none; hc itself is left untouched.
func NewGatewayWithClient(baseURL string, hc *http.Client, session domain.SessionStore, nav domain.Navigator, log *zap.Logger) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	c := *hc
	if c.Jar == nil {
		c.Jar, _ = cookiejar.New(nil)
	}
	return &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &c,
		session: session,
		nav:     nav,
		log:     log,
	}
}

// Do returns the raw response for every status, 401 included. On 401 the
// stored credential is already gone and the navigator has been sent to
// LoginPath by the time Do returns. Transport errors come back unmodified.
func (g *Gateway) Do(ctx context.Context, r Request) (*http.Response, error) {
	var body io.Reader
	switch b := r.Body.(type) {
	case nil:
	case io.Reader:
		body = b
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", r.Method, r.Path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, g.baseURL+r.Path, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	for k, vs := range r.Header {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	if tok, ok := g.session.Token(); ok {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := g.hc.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		g.log.Warn("session rejected, clearing credential",
			zap.String("method", r.Method),
			zap.String("path", r.Path),
		)
		if err := g.session.Clear(); err != nil {
			g.log.Warn("clear session failed", zap.Error(err))
		}
		if g.nav != nil {
			g.nav.Navigate(LoginPath)
		}
	}

	return resp, nil
}
