package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuditEmitsStructuredEvent(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	r := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	r.Header.Set("X-Request-Id", "req-1")
	Audit(r, "auth.login", "status", "success", "user_id", "u1")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("audit output is not JSON: %v\n%s", err, buf.String())
	}
	if line["event"] != "auth.login" {
		t.Errorf("event = %v", line["event"])
	}
	if line["path"] != "/api/v1/auth/login" {
		t.Errorf("path = %v", line["path"])
	}
	if line["request_id"] != "req-1" {
		t.Errorf("request_id = %v", line["request_id"])
	}
	if line["status"] != "success" {
		t.Errorf("status = %v", line["status"])
	}
}

func TestRecordHelpersNoopWithoutInit(t *testing.T) {
	// Metric helpers must be safe before InitMetrics runs.
	ctx := httptest.NewRequest(http.MethodGet, "/", nil).Context()
	RecordAuthLogin(ctx, "success")
	RecordAuthRefresh(ctx, "stale")
	RecordLockoutEvent(ctx, "locked")
	RecordProxyForward(ctx, "jobs", "ok", 0)
}
