package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func TestJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusCreated, map[string]string{"id": "u1"})

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("content type = %q", ct)
	}
	env := decode(t, rec)
	if !env.Success {
		t.Error("success = false")
	}
	if env.Error != nil {
		t.Errorf("error = %+v, want nil", env.Error)
	}
}

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusUnauthorized, CodeInvalidCredentials, "Invalid email or password")

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	env := decode(t, rec)
	if env.Success {
		t.Error("success = true on error response")
	}
	if env.Error == nil || env.Error.Code != CodeInvalidCredentials {
		t.Errorf("error = %+v", env.Error)
	}
	if env.Data != nil {
		t.Errorf("data = %v, want nil", env.Data)
	}
}

func TestInternalHidesDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	Internal(rec)

	env := decode(t, rec)
	if env.Error == nil || env.Error.Code != CodeInternal {
		t.Fatalf("error = %+v", env.Error)
	}
	if env.Error.Message != "Something went wrong" {
		t.Errorf("message = %q leaks detail", env.Error.Message)
	}
}
