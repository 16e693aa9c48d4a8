package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jobhive/jobhive/internal/domain"
	"github.com/jobhive/jobhive/internal/http/response"
	"github.com/jobhive/jobhive/internal/security"
)

func newMiddlewareJWT() *security.JWTManager {
	return security.NewJWTManager("jobhive-test",
		"access-secret-access-secret-access-secret",
		"refresh-secret-refresh-secret-refresh-secret",
		15*time.Minute, time.Hour)
}

func okHandler(t *testing.T, wantUserID string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			t.Error("claims missing from context")
		} else if claims.Subject != wantUserID {
			t.Errorf("subject = %q, want %q", claims.Subject, wantUserID)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func errCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env response.Envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error == nil {
		t.Fatal("no error in envelope")
	}
	return env.Error.Code
}

func TestAuthenticate(t *testing.T) {
	jwtMgr := newMiddlewareJWT()
	user := &domain.User{ID: "u1", Email: "a@b.c", Role: domain.RoleApplicant}

	t.Run("valid bearer token passes", func(t *testing.T) {
		token, err := jwtMgr.GenerateAccessToken(user)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		Authenticate(jwtMgr)(okHandler(t, "u1")).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d body = %s", rec.Code, rec.Body)
		}
	})

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		Authenticate(jwtMgr)(okHandler(t, "")).ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d", rec.Code)
		}
		if code := errCode(t, rec); code != response.CodeUnauthorized {
			t.Errorf("code = %q", code)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer nonsense")
		Authenticate(jwtMgr)(okHandler(t, "")).ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d", rec.Code)
		}
		if code := errCode(t, rec); code != response.CodeInvalidToken {
			t.Errorf("code = %q, want INVALID_TOKEN", code)
		}
	})

	t.Run("expired token is distinguishable", func(t *testing.T) {
		// Same secrets, negative TTL: the token verifies but is past expiry,
		// and the client must see TOKEN_EXPIRED rather than INVALID_TOKEN
		// so it knows to call refresh.
		expiredMgr := security.NewJWTManager("jobhive-test",
			"access-secret-access-secret-access-secret",
			"refresh-secret-refresh-secret-refresh-secret",
			-time.Minute, time.Hour)
		token, err := expiredMgr.GenerateAccessToken(user)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		Authenticate(jwtMgr)(okHandler(t, "")).ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d", rec.Code)
		}
		if code := errCode(t, rec); code != response.CodeTokenExpired {
			t.Errorf("code = %q, want TOKEN_EXPIRED", code)
		}
	})

	t.Run("refresh token is not an access token", func(t *testing.T) {
		refresh, err := jwtMgr.GenerateRefreshToken(user)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+refresh)
		Authenticate(jwtMgr)(okHandler(t, "")).ServeHTTP(rec, req)
		if code := errCode(t, rec); code != response.CodeInvalidToken {
			t.Errorf("code = %q, want INVALID_TOKEN", code)
		}
	})
}

func TestRequireRole(t *testing.T) {
	jwtMgr := newMiddlewareJWT()
	employer := &domain.User{ID: "e1", Email: "e@b.c", Role: domain.RoleEmployer}
	applicant := &domain.User{ID: "a1", Email: "a@b.c", Role: domain.RoleApplicant}

	serve := func(u *domain.User, mw func(http.Handler) http.Handler) *httptest.ResponseRecorder {
		token, err := jwtMgr.GenerateAccessToken(u)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/jobs", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		handler := Authenticate(jwtMgr)(mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})))
		handler.ServeHTTP(rec, req)
		return rec
	}

	if rec := serve(employer, RequireRole(domain.RoleEmployer, domain.RoleAdmin)); rec.Code != http.StatusOK {
		t.Errorf("employer rejected: %d", rec.Code)
	}
	if rec := serve(applicant, RequireRole(domain.RoleEmployer, domain.RoleAdmin)); rec.Code != http.StatusForbidden {
		t.Errorf("applicant admitted: %d", rec.Code)
	}

	if rec := serve(employer, RequirePermission(domain.PermPostJobs)); rec.Code != http.StatusOK {
		t.Errorf("employer cannot post jobs: %d", rec.Code)
	}
	if rec := serve(applicant, RequirePermission(domain.PermPostJobs)); rec.Code != http.StatusForbidden {
		t.Errorf("applicant can post jobs: %d", rec.Code)
	}

	t.Run("unauthenticated request is rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/jobs", nil)
		RequireRole(domain.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})).ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d", rec.Code)
		}
	})
}
