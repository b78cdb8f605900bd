package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"atfinder/internal/config"
	"atfinder/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func newScopeRouter(cfg config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("test-secret"))))
	r.Use(LoadScope(cfg))
	r.GET("/whoami", func(c *gin.Context) {
		scope := GetScope(c)
		c.JSON(http.StatusOK, gin.H{
			"tenant":  scope.TenantID,
			"project": scope.ProjectID,
			"user":    GetUserID(c),
		})
	})
	r.POST("/write", TokenRequired(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func signScopeToken(t *testing.T, secret, tenant, project, subject string) string {
	t.Helper()
	claims := scopeClaims{
		TenantID:  tenant,
		ProjectID: project,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func testConfig() config.Config {
	return config.Config{
		ScopeJWTSecret:   "scope-secret",
		DefaultTenantID:  "default-tenant",
		DefaultProjectID: "default-project",
	}
}

func TestAnonymousGetsDefaultScope(t *testing.T) {
	r := newScopeRouter(testConfig())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !containsAll(body, "default-tenant", "default-project", "visitor_") {
		t.Fatalf("unexpected whoami response: %s", body)
	}
}

func TestBearerTokenOverridesScope(t *testing.T) {
	cfg := testConfig()
	r := newScopeRouter(cfg)

	token := signScopeToken(t, cfg.ScopeJWTSecret, "acme", "campaigns", "user-42")
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	body := w.Body.String()
	if !containsAll(body, "acme", "campaigns", "user-42") {
		t.Fatalf("token scope not applied: %s", body)
	}
}

func TestForgedTokenFallsBackToAnonymous(t *testing.T) {
	cfg := testConfig()
	r := newScopeRouter(cfg)

	token := signScopeToken(t, "wrong-secret", "acme", "campaigns", "mallory")
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	body := w.Body.String()
	if !containsAll(body, "default-tenant", "default-project") {
		t.Fatalf("forged token must fall back to default scope: %s", body)
	}
}

func TestTokenRequiredBlocksAnonymousWrites(t *testing.T) {
	cfg := testConfig()
	r := newScopeRouter(cfg)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/write", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous write allowed, status = %d", w.Code)
	}

	token := signScopeToken(t, cfg.ScopeJWTSecret, "acme", "campaigns", "user-42")
	req := httptest.NewRequest(http.MethodPost, "/write", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("authed write blocked, status = %d", w.Code)
	}
}

func TestGetScopeWithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if got := GetScope(c); got != (models.Scope{}) {
		t.Fatalf("expected zero scope, got %+v", got)
	}
	if got := GetUserID(c); got != "" {
		t.Fatalf("expected empty user id, got %q", got)
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
