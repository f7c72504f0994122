package identityd

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"tournament-client/internal/config"

	"github.com/gin-gonic/gin"
)

func testService(t *testing.T) (*Service, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := NewTokenManager(config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTL: 15 * time.Minute})
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}
	svc, err := NewService(NewMemoryRepo(), tokens, slog.Default())
	if err != nil {
		t.Fatalf("service: %v", err)
	}

	r := gin.New()
	svc.RegisterRoutes(r)
	return svc, r
}

func doRegister(t *testing.T, r *gin.Engine, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	body := `{"email":"` + email + `","password":"` + password + `"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/users/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func doLogin(t *testing.T, r *gin.Engine, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/users/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterLoginMeRoundTrip(t *testing.T) {
	_, r := testService(t)

	w := doRegister(t, r, "a@b.com", "pw1234")
	if w.Code != http.StatusOK {
		t.Fatalf("register: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var reg map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &reg); err != nil {
		t.Fatalf("decode register: %v", err)
	}
	if reg["email"] != "a@b.com" || reg["role"] != DefaultRole {
		t.Fatalf("unexpected register body %v", reg)
	}

	w = doLogin(t, r, "a@b.com", "pw1234")
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var login map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &login); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if login["access_token"] == "" || login["token_type"] != "bearer" || login["user_id"] == "" {
		t.Fatalf("unexpected login body %v", login)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+login["access_token"])
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var me map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me["id"] != login["user_id"] || me["email"] != "a@b.com" || me["role"] != DefaultRole {
		t.Fatalf("unexpected me body %v", me)
	}
}

func TestLogin_WrongPasswordIs401(t *testing.T) {
	_, r := testService(t)
	doRegister(t, r, "a@b.com", "pw1234")

	if w := doLogin(t, r, "a@b.com", "wrong"); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestLogin_UnknownUserIs401(t *testing.T) {
	_, r := testService(t)
	if w := doLogin(t, r, "nobody@b.com", "pw"); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRegister_DuplicateEmailIs400(t *testing.T) {
	_, r := testService(t)
	doRegister(t, r, "a@b.com", "pw1234")
	if w := doRegister(t, r, "A@B.com", "pw1234"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate (case-insensitive), got %d", w.Code)
	}
}

func TestRegister_RejectsBadInput(t *testing.T) {
	_, r := testService(t)
	if w := doRegister(t, r, "not-an-email", "pw1234"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad email, got %d", w.Code)
	}
	if w := doRegister(t, r, "a@b.com", "pw"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for short password, got %d", w.Code)
	}
}

func TestMe_MissingOrInvalidTokenIs401(t *testing.T) {
	_, r := testService(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with invalid token, got %d", w.Code)
	}
}

func TestMe_ExpiredTokenIs401(t *testing.T) {
	svc, r := testService(t)
	doRegister(t, r, "a@b.com", "pw1234")
	w := doLogin(t, r, "a@b.com", "pw1234")
	var login map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &login)

	// Move the service clock past TTL plus leeway.
	svc.clock = func() time.Time { return time.Now().Add(16 * time.Minute) }

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+login["access_token"])
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %d", w.Code)
	}
}

func TestPasswordHashing(t *testing.T) {
	h, err := hashPassword("pw1234")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !verifyPassword(h, "pw1234") {
		t.Fatalf("expected verification to pass")
	}
	if verifyPassword(h, "other") {
		t.Fatalf("expected verification to fail for wrong password")
	}
	if verifyPassword("garbage", "pw1234") {
		t.Fatalf("expected malformed hash rejection")
	}

	h2, _ := hashPassword("pw1234")
	if h == h2 {
		t.Fatalf("expected unique salts per hash")
	}
}
