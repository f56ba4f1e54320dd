// Package testkit holds test doubles shared by service and controller tests.
package testkit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
)

// Stub describes one upstream call a test expects. Body is marshalled to JSON
// unless it is already a string or []byte.
type Stub struct {
	Method string // empty matches any method
	Path   string // prefix match against URL path, empty matches any
	Status int    // 0 means 200
	Body   interface{}

	// Err, when set, fails the round trip at the transport level to
	// simulate network failure.
	Err error
}

// MockTransport implements http.RoundTripper over a list of Stubs.
// Install it on the shared client before the test:
//
//	mt := testkit.NewMockTransport(
//	    testkit.Stub{Method: "GET", Path: "/api/orders/", Body: order},
//	)
//	httpclient.DefaultClient.Transport = mt
//	defer httpclient.ResetTransport()
//	...
//	mt.AssertAllCalled(t)
type MockTransport struct {
	mu    sync.Mutex
	stubs []stubEntry
	calls []string
}

type stubEntry struct {
	stub  Stub
	calls int
}

func NewMockTransport(stubs ...Stub) *MockTransport {
	mt := &MockTransport{}
	for _, s := range stubs {
		mt.stubs = append(mt.stubs, stubEntry{stub: s})
	}
	return mt
}

// Add appends another stub after construction.
func (mt *MockTransport) Add(s Stub) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.stubs = append(mt.stubs, stubEntry{stub: s})
}

// RoundTrip matches the request against the stubs in order and returns a
// synthetic response for the first match.
func (mt *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	mt.calls = append(mt.calls, req.Method+" "+req.URL.Path)

	for i := range mt.stubs {
		entry := &mt.stubs[i]
		if !matches(entry.stub, req) {
			continue
		}
		entry.calls++
		return buildResponse(req, entry.stub)
	}

	return nil, fmt.Errorf("testkit: unexpected call %s %s, no matching stub", req.Method, req.URL.Path)
}

// Calls returns "METHOD /path" for every intercepted request, in order.
func (mt *MockTransport) Calls() []string {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return append([]string(nil), mt.calls...)
}

// AssertAllCalled fails the test if any stub was never matched.
func (mt *MockTransport) AssertAllCalled(t *testing.T) {
	t.Helper()

	mt.mu.Lock()
	defer mt.mu.Unlock()
	for _, e := range mt.stubs {
		if e.calls == 0 {
			t.Errorf("testkit: stub %s %s was never called", e.stub.Method, e.stub.Path)
		}
	}
}

func matches(s Stub, req *http.Request) bool {
	if s.Method != "" && !strings.EqualFold(s.Method, req.Method) {
		return false
	}
	if s.Path != "" && !strings.HasPrefix(req.URL.Path, s.Path) {
		return false
	}
	return true
}

func buildResponse(req *http.Request, s Stub) (*http.Response, error) {
	if s.Err != nil {
		return nil, s.Err
	}

	status := s.Status
	if status == 0 {
		status = http.StatusOK
	}

	var raw []byte
	switch b := s.Body.(type) {
	case nil:
	case string:
		raw = []byte(b)
	case []byte:
		raw = b
	default:
		var err error
		raw, err = json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("testkit: marshal stub body: %w", err)
		}
	}

	header := make(http.Header)
	header.Set("Content-Type", "application/json")

	return &http.Response{
		StatusCode: status,
		Status:     fmt.Sprintf("%d %s", status, http.StatusText(status)),
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader(raw)),
		Request:    req,
	}, nil
}
