package mockrpc

import (
	"encoding/json"
	"net/http"

	jsonwriter "github.com/taskdock/task-front/internal/json"
	"github.com/taskdock/task-front/internal/log"
)

// TestIDHeader identifies the calling test on harness requests.
const TestIDHeader = "X-Test-Id"

// Handler exposes the registry over HTTP for test suites. Must only be
// routed when mock mode is enabled.
type Handler struct {
	registry *Registry
}

// NewHandler creates the test harness handler.
func NewHandler(registry *Registry) *Handler {
	return &Handler{registry: registry}
}

// Register handles POST /test-mock.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	testID := r.Header.Get(TestIDHeader)
	if testID == "" {
		jsonwriter.WriteBadRequest(w, TestIDHeader+" header is required")
		return
	}

	var req RegisterRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		jsonwriter.WriteBadRequest(w, "invalid registration body: "+err.Error())
		return
	}

	if err := h.registry.Register(testID, req); err != nil {
		jsonwriter.WriteBadRequest(w, err.Error())
		return
	}
	jsonwriter.Write(w, map[string]bool{"registered": true})
}

// Clear handles DELETE /test-mock.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	testID := r.Header.Get(TestIDHeader)
	if testID == "" {
		jsonwriter.WriteBadRequest(w, TestIDHeader+" header is required")
		return
	}

	h.registry.Clear(testID)
	log.LogDebugWithFields("mockrpc", "Mocks cleared", map[string]any{"testId": testID})
	jsonwriter.Write(w, map[string]bool{"cleared": true})
}

// Status handles GET /test-mock, a liveness probe for the harness.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	jsonwriter.Write(w, map[string]string{"status": "ok"})
}
