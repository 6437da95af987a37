// Package mockrpc lets test suites script RPC responses and failures
// without a live backend. Registrations are partitioned by test id so
// concurrent test runs never see each other's mocks; the transport falls
// through to the built-in fake backend when nothing is registered.
package mockrpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"google.golang.org/grpc/codes"

	"github.com/taskdock/task-front/internal/log"
)

// DefaultTTL bounds how long a registration without an explicit ttl stays
// live. A soft guard against state leaking between unrelated test runs.
const DefaultTTL = 5 * time.Minute

// ErrorSpec is a scripted remote failure. Code accepts canonical status
// code names ("UNAVAILABLE", "UNAUTHENTICATED", ...) in JSON.
type ErrorSpec struct {
	Code    codes.Code `json:"code"`
	Message string     `json:"message"`
}

// Registration scripts one intercepted call for one test id.
type Registration struct {
	TestID   string
	Service  string
	Method   string
	Response json.RawMessage
	Error    *ErrorSpec
	Once     bool

	ttl          time.Duration
	registeredAt time.Time
}

// RegisterRequest is the wire shape of a registration. TTLMs distinguishes
// absent (default ttl) from an explicit zero (expired on next lookup).
type RegisterRequest struct {
	Service  string          `json:"service"`
	Method   string          `json:"method"`
	Response json.RawMessage `json:"response,omitempty"`
	Error    *ErrorSpec      `json:"error,omitempty"`
	Once     bool            `json:"once,omitempty"`
	TTLMs    *int64          `json:"ttlMs,omitempty"`
}

// ResultShapes maps service name to method name to a factory for that
// method's result type. Used to validate response payloads at registration
// time instead of failing deep inside a test.
type ResultShapes map[string]map[string]func() any

// Registry is the process-wide mock lookup table. Safe for concurrent use;
// once-consumption is an atomic take under the registry lock.
type Registry struct {
	mu      sync.Mutex
	entries map[string][]*Registration
	shapes  ResultShapes
	now     func() time.Time
}

// NewRegistry builds an empty registry validating against the given shapes.
func NewRegistry(shapes ResultShapes) *Registry {
	return &Registry{
		entries: make(map[string][]*Registration),
		shapes:  shapes,
		now:     time.Now,
	}
}

func key(testID, service, method string) string {
	return testID + "\x00" + service + "\x00" + method
}

// Register appends a registration for (testID, service, method). Later
// registrations shadow earlier ones on lookup. Exactly one of response and
// error must be present.
func (r *Registry) Register(testID string, req RegisterRequest) error {
	if testID == "" {
		return fmt.Errorf("test id is required")
	}
	if req.Service == "" || req.Method == "" {
		return fmt.Errorf("service and method are required")
	}
	if (req.Response == nil) == (req.Error == nil) {
		return fmt.Errorf("exactly one of response and error must be set")
	}
	if req.Error != nil && req.Error.Message == "" {
		return fmt.Errorf("error.message must not be empty")
	}
	if req.Response != nil {
		if err := r.validateShape(req.Service, req.Method, req.Response); err != nil {
			return err
		}
	}

	ttl := DefaultTTL
	if req.TTLMs != nil {
		if *req.TTLMs < 0 {
			return fmt.Errorf("ttlMs must not be negative")
		}
		ttl = time.Duration(*req.TTLMs) * time.Millisecond
	}

	reg := &Registration{
		TestID:       testID,
		Service:      req.Service,
		Method:       req.Method,
		Response:     req.Response,
		Error:        req.Error,
		Once:         req.Once,
		ttl:          ttl,
		registeredAt: r.now(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	k := key(testID, req.Service, req.Method)
	r.entries[k] = append(r.entries[k], reg)

	log.LogDebugWithFields("mockrpc", "Mock registered", map[string]any{
		"testId":  testID,
		"service": req.Service,
		"method":  req.Method,
		"once":    req.Once,
	})
	return nil
}

// validateShape decodes the payload into the method's result type with
// unknown fields rejected. Unknown service/method pairs are registration
// errors: a typo should fail loudly, not silently never match.
func (r *Registry) validateShape(service, method string, payload json.RawMessage) error {
	methods, ok := r.shapes[service]
	if !ok {
		return fmt.Errorf("unknown service %q", service)
	}
	factory, ok := methods[method]
	if !ok {
		return fmt.Errorf("unknown method %q on service %q", method, service)
	}
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(factory()); err != nil {
		return fmt.Errorf("response does not match %s.%s result shape: %w", service, method, err)
	}
	return nil
}

// Take returns the newest non-expired registration for the key and, if it
// was registered once-only, removes it in the same critical section so
// racing callers cannot both win. Expired entries are pruned as a side
// effect of the scan.
func (r *Registry) Take(testID, service, method string) (*Registration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key(testID, service, method)
	regs := r.entries[k]
	if len(regs) == 0 {
		return nil, false
	}

	now := r.now()
	live := regs[:0]
	for _, reg := range regs {
		if reg.expired(now) {
			continue
		}
		live = append(live, reg)
	}

	if len(live) == 0 {
		delete(r.entries, k)
		return nil, false
	}

	newest := live[len(live)-1]
	if newest.Once {
		live = live[:len(live)-1]
	}
	if len(live) == 0 {
		delete(r.entries, k)
	} else {
		r.entries[k] = live
	}
	return newest, true
}

// Clear removes every registration for a test id.
func (r *Registry) Clear(testID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prefix := testID + "\x00"
	for k := range r.entries {
		if strings.HasPrefix(k, prefix) {
			delete(r.entries, k)
		}
	}
}

func (reg *Registration) expired(now time.Time) bool {
	return !now.Before(reg.registeredAt.Add(reg.ttl))
}
