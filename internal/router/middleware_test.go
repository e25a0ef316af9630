package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/loadbid-next/internal/authz"
	"github.com/loadbid-next/internal/config"
	"github.com/loadbid-next/internal/http/handlers/shared"
	"github.com/loadbid-next/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

const testSecret = "router-test-secret"

func signTestToken(t *testing.T, subject, role string, expiresIn time.Duration) string {
	t.Helper()
	claims := BidderClaims{
		Role:            role,
		OperatingNumber: "MC-" + subject,
		DotNumber:       "DOT-" + subject,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token failed: %v", err)
	}
	return token
}

func decodeStatusCode(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	var resp struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v body=%s", err, w.Body.String())
	}
	return resp.StatusCode
}

func identityEcho(c *gin.Context) {
	identity, ok := shared.LookupIdentity(c)
	c.JSON(http.StatusOK, gin.H{
		"status_code": 0,
		"ok":          ok,
		"subject":     identity.Subject,
		"role":        identity.Role,
		"mc":          identity.OperatingNumber,
	})
}

func TestResolveAllowedOrigin(t *testing.T) {
	got := resolveAllowedOrigin("https://example.com", []string{"*"}, false)
	if got != "*" {
		t.Fatalf("wildcard without credentials should return *, got %s", got)
	}

	got = resolveAllowedOrigin("https://example.com", []string{"*"}, true)
	if got != "https://example.com" {
		t.Fatalf("wildcard with credentials should echo origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://a.example.com", []string{"https://a.example.com", "https://b.example.com"}, false)
	if got != "https://a.example.com" {
		t.Fatalf("allow-list should return matched origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://x.example.com", []string{"https://a.example.com"}, false)
	if got != "" {
		t.Fatalf("unmatched origin should be empty, got %s", got)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"request_id": getRequestID(c),
			"ctx_id":     logger.RequestIDFromContext(c.Request.Context()),
		})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "req-123")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if w.Header().Get(requestIDHeader) != "req-123" {
		t.Fatalf("response request id want req-123 got %s", w.Header().Get(requestIDHeader))
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp["request_id"] != "req-123" {
		t.Fatalf("context request id want req-123 got %s", resp["request_id"])
	}
	if resp["ctx_id"] != "req-123" {
		t.Fatalf("request context id want req-123 got %s", resp["ctx_id"])
	}

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w2, req2)
	generated := w2.Header().Get(requestIDHeader)
	if strings.TrimSpace(generated) == "" {
		t.Fatalf("generated request id should not be blank")
	}
}

func TestTokenAuthMiddlewareMissingSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(TokenAuthMiddleware(config.JWTConfig{}, true))
	r.GET("/me/ping", identityEcho)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me/ping", nil)
	req.Header.Set("Authorization", "Bearer whatever")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if code := decodeStatusCode(t, w); code != 401 {
		t.Fatalf("status_code want 401 got %d", code)
	}
}

func TestTokenAuthMiddlewareSetsIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(TokenAuthMiddleware(config.JWTConfig{SecretKey: testSecret}, true))
	r.GET("/me/ping", identityEcho)

	cases := []struct {
		name     string
		header   string
		wantCode int
		wantRole string
	}{
		{name: "missing header", header: "", wantCode: 401},
		{name: "malformed header", header: "Token abc", wantCode: 401},
		{name: "bad signature", header: "Bearer " + signTestToken(t, "carrier-a", "carrier", time.Hour) + "x", wantCode: 401},
		{name: "expired", header: "Bearer " + signTestToken(t, "carrier-a", "carrier", -time.Minute), wantCode: 401},
		{name: "empty subject", header: "Bearer " + signTestToken(t, "", "carrier", time.Hour), wantCode: 401},
		{name: "carrier", header: "Bearer " + signTestToken(t, "carrier-a", "carrier", time.Hour), wantCode: 0, wantRole: "carrier"},
		{name: "role defaults to carrier", header: "Bearer " + signTestToken(t, "carrier-b", "", time.Hour), wantCode: 0, wantRole: "carrier"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me/ping", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)
			if code := decodeStatusCode(t, w); code != tc.wantCode {
				t.Fatalf("status_code want %d got %d body=%s", tc.wantCode, code, w.Body.String())
			}
			if tc.wantCode != 0 {
				return
			}
			var resp map[string]interface{}
			_ = json.Unmarshal(w.Body.Bytes(), &resp)
			if resp["role"] != tc.wantRole {
				t.Fatalf("role want %s got %v", tc.wantRole, resp["role"])
			}
			if !strings.HasPrefix(fmt.Sprint(resp["mc"]), "MC-") {
				t.Fatalf("operating number claim not propagated: %v", resp["mc"])
			}
		})
	}
}

func TestOptionalTokenAllowsAnonymous(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(TokenAuthMiddleware(config.JWTConfig{SecretKey: testSecret}, false))
	r.GET("/auctions/x", identityEcho)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auctions/x", nil))
	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp["ok"] != false {
		t.Fatalf("anonymous request should carry no identity, got %v", resp)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auctions/x", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	r.ServeHTTP(w, req)
	if code := decodeStatusCode(t, w); code != 401 {
		t.Fatalf("invalid optional token must still be rejected, got %d", code)
	}
}

func TestIntakeKeyMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(IntakeKeyMiddleware("intake-key"))
	r.POST("/intake", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status_code": 0})
	})

	cases := []struct {
		name     string
		header   string
		value    string
		wantCode int
	}{
		{name: "missing", wantCode: 401},
		{name: "wrong key", header: webhookKeyHeader, value: "nope", wantCode: 401},
		{name: "webhook header", header: webhookKeyHeader, value: "intake-key", wantCode: 0},
		{name: "bearer", header: "Authorization", value: "Bearer intake-key", wantCode: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/intake", nil)
			if tc.header != "" {
				req.Header.Set(tc.header, tc.value)
			}
			r.ServeHTTP(w, req)
			if code := decodeStatusCode(t, w); code != tc.wantCode {
				t.Fatalf("status_code want %d got %d", tc.wantCode, code)
			}
		})
	}

	disabled := gin.New()
	disabled.Use(IntakeKeyMiddleware(""))
	disabled.POST("/intake", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status_code": 0})
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/intake", nil)
	req.Header.Set(webhookKeyHeader, "")
	disabled.ServeHTTP(w, req)
	if code := decodeStatusCode(t, w); code != 401 {
		t.Fatalf("intake without configured key must be rejected, got %d", code)
	}
}

func TestAdminRBACMiddlewareByTokenRole(t *testing.T) {
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:router_rbac_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	authzService, err := authz.NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	if err := authzService.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap roles failed: %v", err)
	}

	r := gin.New()
	admin := r.Group("/api/v1/admin", TokenAuthMiddleware(config.JWTConfig{SecretKey: testSecret}, true), AdminRBACMiddleware(authzService))
	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status_code": 0}) }
	admin.GET("/auctions", ok)
	admin.POST("/auctions/:auction_id/award", ok)
	admin.POST("/archive/end-of-day", ok)

	cases := []struct {
		role     string
		method   string
		path     string
		wantCode int
	}{
		{role: "carrier", method: http.MethodGet, path: "/api/v1/admin/auctions", wantCode: 403},
		{role: "dispatcher", method: http.MethodGet, path: "/api/v1/admin/auctions", wantCode: 0},
		{role: "dispatcher", method: http.MethodPost, path: "/api/v1/admin/auctions/LB-1/award", wantCode: 0},
		{role: "dispatcher", method: http.MethodPost, path: "/api/v1/admin/archive/end-of-day", wantCode: 403},
		{role: "admin", method: http.MethodPost, path: "/api/v1/admin/archive/end-of-day", wantCode: 0},
	}
	for _, tc := range cases {
		t.Run(tc.role+" "+tc.method+" "+tc.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(tc.method, tc.path, nil)
			req.Header.Set("Authorization", "Bearer "+signTestToken(t, "user-"+tc.role, tc.role, time.Hour))
			r.ServeHTTP(w, req)
			if code := decodeStatusCode(t, w); code != tc.wantCode {
				t.Fatalf("status_code want %d got %d", tc.wantCode, code)
			}
		})
	}
}
