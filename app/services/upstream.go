// Package services holds the clients for the upstream shop API. Each service
// wraps one resource, decodes and validates the payload at the boundary, and
// reports latency per logical operation.
package services

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/httpclient"
)

// UpstreamError carries the upstream status code and the verbatim message the
// shop API returned. Screens render Message as-is.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return e.Message
}

// IsNotFound reports whether err is an upstream 404.
func IsNotFound(err error) bool {
	ue, ok := err.(*UpstreamError)
	return ok && ue.Status == http.StatusNotFound
}

// upstreamErr turns a non-2xx upstream response into an UpstreamError. The
// shop API reports failures as {"message": "..."}; when that shape is absent
// the raw body or status text is used instead.
func upstreamErr(resp *httpclient.Response) error {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(resp.Raw, &payload); err == nil && payload.Message != "" {
		return &UpstreamError{Status: resp.StatusCode, Message: payload.Message}
	}

	msg := resp.Text()
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &UpstreamError{Status: resp.StatusCode, Message: msg}
}

func apiURL(path string, args ...interface{}) string {
	return config.APIBaseURL() + fmt.Sprintf(path, args...)
}
