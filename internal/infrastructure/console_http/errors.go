package console_http

import (
	"fmt"
	"net/http"

	"github.com/davarch/tenant-console/internal/domain"
)

// StatusError is a non-2xx answer from the console API.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Status)
}

func (e *StatusError) Is(target error) bool {
	return target == domain.ErrAuthRejected && e.Code == http.StatusUnauthorized
}

func statusError(r Request, resp *http.Response) error {
	return &StatusError{Method: r.Method, Path: r.Path, Code: resp.StatusCode, Status: resp.Status}
}
