package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"erario/internal/middleware"
	"erario/internal/validator"
)

const (
	testActorID       = "0190a5c4-0000-7000-8000-000000000001"
	testBudgetID      = "0190a5c4-1111-7000-8000-000000000001"
	testLineItemID    = "0190a5c4-2222-7000-8000-000000000001"
	testTransactionID = "0190a5c4-3333-7000-8000-000000000001"
)

// --- mock audit service ---

type auditEntry struct {
	ActorID    string
	Action     string
	ResourceID string
}

type mockAuditService struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (m *mockAuditService) Log(actorID, action, _, resourceID, _ string, _ map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, auditEntry{ActorID: actorID, Action: action, ResourceID: resourceID})
}

func (m *mockAuditService) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.Action)
	}
	return out
}

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

func injectActorID(actorID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ActorIDKey, actorID)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func doRequestWithHeader(r *gin.Engine, method, path, body, header, value string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if value != "" {
		req.Header.Set(header, value)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

// field walks nested JSON objects, e.g. field(t, body, "transaction", "status").
func field(t *testing.T, result map[string]interface{}, path ...string) interface{} {
	t.Helper()
	var cur interface{} = result
	for _, key := range path {
		obj, ok := cur.(map[string]interface{})
		if !ok {
			t.Fatalf("expected object at %q, got %v", key, cur)
		}
		cur = obj[key]
	}
	return cur
}
