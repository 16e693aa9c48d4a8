package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jobhive/jobhive/internal/database"
	"github.com/jobhive/jobhive/internal/http/handler"
	"github.com/jobhive/jobhive/internal/http/router"
	"github.com/jobhive/jobhive/internal/repository"
	"github.com/jobhive/jobhive/internal/security"
	"github.com/jobhive/jobhive/internal/service"
)

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type sessionData struct {
	User struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Role  string `json:"role"`
	} `json:"user"`
	AccessToken string `json:"accessToken"`
}

type testStack struct {
	authURL string
	jobsURL string
	client  *http.Client
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := repository.NewUserRepository(db)
	jobs := repository.NewJobRepository(db)
	jwtMgr := security.NewJWTManager(
		"jobhive-test",
		strings.Repeat("a", 32),
		strings.Repeat("b", 32),
		15*time.Minute,
		24*time.Hour,
	)
	cookieMgr := security.NewCookieManager("", false, "strict", 24*time.Hour)

	authSvc := service.NewAuthService(users, jwtMgr, service.AuthConfig{
		MaxLoginAttempts: 5,
		LockoutDuration:  15 * time.Minute,
		ResetTokenTTL:    30 * time.Minute,
	}, log)
	jobSvc := service.NewJobService(jobs, log)

	dep := router.Dependencies{
		AuthHandler:      handler.NewAuthHandler(authSvc, cookieMgr, "http://localhost:5173", false),
		JobHandler:       handler.NewJobHandler(jobSvc),
		JWTManager:       jwtMgr,
		CORSOrigins:      []string{"http://localhost:5173"},
		AuthRateLimitRPM: 1000,
		APIRateLimitRPM:  1000,
	}

	authSrv := httptest.NewServer(router.NewAuthRouter(dep))
	t.Cleanup(authSrv.Close)
	jobSrv := httptest.NewServer(router.NewJobRouter(dep))
	t.Cleanup(jobSrv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &testStack{
		authURL: authSrv.URL,
		jobsURL: jobSrv.URL,
		client:  &http.Client{Jar: jar},
	}
}

func (st *testStack) register(t *testing.T, email, password, role string) sessionData {
	t.Helper()
	resp, env := doJSON(t, st.client, http.MethodPost, st.authURL+"/api/v1/auth/register", map[string]string{
		"name":     "Test User",
		"email":    email,
		"password": password,
		"role":     role,
	}, "")
	if resp.StatusCode != http.StatusCreated || !env.Success {
		t.Fatalf("register failed: status=%d error=%+v", resp.StatusCode, env.Error)
	}
	var data sessionData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return data
}

func (st *testStack) login(t *testing.T, email, password string) (*http.Response, apiEnvelope) {
	t.Helper()
	return doJSON(t, st.client, http.MethodPost, st.authURL+"/api/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, bearer string) (*http.Response, apiEnvelope) {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	var env apiEnvelope
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &env)
	}
	return resp, env
}

func refreshCookieValue(t *testing.T, client *http.Client, authURL string) string {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, authURL+"/api/v1/auth/refresh-token", nil)
	if err != nil {
		t.Fatalf("cookie lookup request: %v", err)
	}
	for _, c := range client.Jar.Cookies(req.URL) {
		if c.Name == security.RefreshCookieName {
			return c.Value
		}
	}
	return ""
}

func TestAuthLifecycle(t *testing.T) {
	st := newTestStack(t)

	session := st.register(t, "lifecycle@example.com", "Str0ngPass", "applicant")
	if session.AccessToken == "" {
		t.Fatal("register should issue an access token")
	}
	if session.User.Role != "applicant" {
		t.Fatalf("role = %q", session.User.Role)
	}

	resp, env := st.login(t, "lifecycle@example.com", "Str0ngPass")
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("login failed: status=%d error=%+v", resp.StatusCode, env.Error)
	}
	var loginData sessionData
	if err := json.Unmarshal(env.Data, &loginData); err != nil {
		t.Fatalf("decode login data: %v", err)
	}

	var refreshCookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == security.RefreshCookieName {
			refreshCookie = c
		}
	}
	if refreshCookie == nil {
		t.Fatal("login should set the refresh cookie")
	}
	if !refreshCookie.HttpOnly {
		t.Error("refresh cookie must be HttpOnly")
	}
	if refreshCookie.Path != "/api/v1/auth" {
		t.Errorf("refresh cookie path = %q", refreshCookie.Path)
	}

	resp, env = doJSON(t, st.client, http.MethodGet, st.authURL+"/api/v1/auth/me", nil, loginData.AccessToken)
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("me failed: status=%d", resp.StatusCode)
	}

	resp, _ = doJSON(t, st.client, http.MethodGet, st.authURL+"/api/v1/auth/me", nil, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("me without token should be 401, got %d", resp.StatusCode)
	}

	before := refreshCookieValue(t, st.client, st.authURL)
	resp, env = doJSON(t, st.client, http.MethodPost, st.authURL+"/api/v1/auth/refresh-token", nil, "")
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("refresh failed: status=%d error=%+v", resp.StatusCode, env.Error)
	}
	after := refreshCookieValue(t, st.client, st.authURL)
	if after == "" || after == before {
		t.Fatal("refresh should rotate the refresh cookie")
	}

	// The rotated-out token is dead even when presented via the body
	// fallback from a cookie-less client.
	bare := &http.Client{}
	resp, env = doJSON(t, bare, http.MethodPost, st.authURL+"/api/v1/auth/refresh-token",
		map[string]string{"refreshToken": before}, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("replayed refresh should be 401, got %d", resp.StatusCode)
	}
	if env.Error == nil || env.Error.Code != "INVALID_REFRESH_TOKEN" {
		t.Fatalf("replay error = %+v", env.Error)
	}

	resp, env = doJSON(t, st.client, http.MethodPost, st.authURL+"/api/v1/auth/logout", nil, loginData.AccessToken)
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("logout failed: status=%d", resp.StatusCode)
	}
	cleared := false
	for _, c := range resp.Cookies() {
		if c.Name == security.RefreshCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("logout should clear the refresh cookie")
	}

	resp, _ = doJSON(t, bare, http.MethodPost, st.authURL+"/api/v1/auth/refresh-token",
		map[string]string{"refreshToken": after}, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("refresh after logout should be 401, got %d", resp.StatusCode)
	}
}

func TestLoginLocksAfterRepeatedFailures(t *testing.T) {
	st := newTestStack(t)
	st.register(t, "lockout@example.com", "Str0ngPass", "applicant")

	for i := 0; i < 5; i++ {
		resp, env := st.login(t, "lockout@example.com", "WrongPass1")
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("attempt %d: status = %d", i+1, resp.StatusCode)
		}
		if env.Error == nil || env.Error.Code != "INVALID_CREDENTIALS" {
			t.Fatalf("attempt %d: error = %+v", i+1, env.Error)
		}
	}

	// The correct password no longer helps once the account is locked.
	resp, env := st.login(t, "lockout@example.com", "Str0ngPass")
	if resp.StatusCode != http.StatusLocked {
		t.Fatalf("locked login status = %d", resp.StatusCode)
	}
	if env.Error == nil || env.Error.Code != "ACCOUNT_LOCKED" {
		t.Fatalf("locked login error = %+v", env.Error)
	}
}

func TestLoginSupersedesPreviousSession(t *testing.T) {
	st := newTestStack(t)
	st.register(t, "single-session@example.com", "Str0ngPass", "applicant")

	if resp, _ := st.login(t, "single-session@example.com", "Str0ngPass"); resp.StatusCode != http.StatusOK {
		t.Fatalf("first login status = %d", resp.StatusCode)
	}
	first := refreshCookieValue(t, st.client, st.authURL)

	if resp, _ := st.login(t, "single-session@example.com", "Str0ngPass"); resp.StatusCode != http.StatusOK {
		t.Fatalf("second login status = %d", resp.StatusCode)
	}

	bare := &http.Client{}
	resp, _ := doJSON(t, bare, http.MethodPost, st.authURL+"/api/v1/auth/refresh-token",
		map[string]string{"refreshToken": first}, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("stale session refresh should be 401, got %d", resp.StatusCode)
	}
}

func TestForgotAndResetPassword(t *testing.T) {
	st := newTestStack(t)
	st.register(t, "forgot@example.com", "Str0ngPass", "applicant")

	resp, env := doJSON(t, st.client, http.MethodPost, st.authURL+"/api/v1/auth/forgot-password",
		map[string]string{"email": "forgot@example.com"}, "")
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("forgot failed: status=%d", resp.StatusCode)
	}
	var forgotData struct {
		ResetURL string `json:"resetUrl"`
	}
	if err := json.Unmarshal(env.Data, &forgotData); err != nil {
		t.Fatalf("decode forgot data: %v", err)
	}
	if forgotData.ResetURL == "" {
		t.Fatal("development mode should expose the reset url")
	}
	token := forgotData.ResetURL[strings.LastIndex(forgotData.ResetURL, "/")+1:]

	resp, env = doJSON(t, st.client, http.MethodPost, st.authURL+"/api/v1/auth/reset-password/"+token,
		map[string]string{"password": "N3wPassword"}, "")
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("reset failed: status=%d error=%+v", resp.StatusCode, env.Error)
	}

	if resp, _ = st.login(t, "forgot@example.com", "Str0ngPass"); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("old password should be rejected, got %d", resp.StatusCode)
	}
	if resp, _ = st.login(t, "forgot@example.com", "N3wPassword"); resp.StatusCode != http.StatusOK {
		t.Fatalf("new password should work, got %d", resp.StatusCode)
	}

	// Reset tokens are single use.
	resp, env = doJSON(t, st.client, http.MethodPost, st.authURL+"/api/v1/auth/reset-password/"+token,
		map[string]string{"password": "An0therPass"}, "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("reused token status = %d", resp.StatusCode)
	}
	if env.Error == nil || env.Error.Code != "INVALID_TOKEN" {
		t.Fatalf("reused token error = %+v", env.Error)
	}
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	st := newTestStack(t)

	resp, env := doJSON(t, st.client, http.MethodPost, st.authURL+"/api/v1/auth/forgot-password",
		map[string]string{"email": "nobody@example.com"}, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown email status = %d", resp.StatusCode)
	}
	if env.Error == nil || env.Error.Code != "NOT_FOUND" {
		t.Fatalf("unknown email error = %+v", env.Error)
	}
}
