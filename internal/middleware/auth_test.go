package middleware

import (
	"learnhub_backend/internal/config"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/util"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		user := util.GetUserFromContext(c)
		c.JSON(http.StatusOK, gin.H{"userId": user.UserID})
	})
	r.GET("/me", handlers...)
	return r
}

func token(t *testing.T, userID uint, role model.UserRole, ttl time.Duration) string {
	t.Helper()
	tok, err := util.GenerateJWT(userID, role, testSecret, ttl)
	require.NoError(t, err)
	return tok
}

func TestAuthMiddleware_TokenSources(t *testing.T) {
	cfg := &config.JWTConfig{Secret: testSecret, CookieName: "token"}
	r := newRouter(AuthMiddleware(cfg))
	tok := token(t, 7, model.Student, time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"userId":7}`, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: tok})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/me?token="+tok, nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	cfg := &config.JWTConfig{Secret: testSecret, CookieName: "token"}
	r := newRouter(AuthMiddleware(cfg))

	cases := map[string]string{
		"missing":      "",
		"garbage":      "Bearer not-a-jwt",
		"expired":      "Bearer " + token(t, 7, model.Student, -time.Minute),
		"wrong secret": "Bearer " + func() string { s, _ := util.GenerateJWT(7, model.Student, "other-secret", time.Hour); return s }(),
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRoleMiddleware(t *testing.T) {
	cfg := &config.JWTConfig{Secret: testSecret}
	r := newRouter(AuthMiddleware(cfg), RoleMiddleware(model.Instructor))

	for role, want := range map[model.UserRole]int{
		model.Student:    http.StatusForbidden,
		model.Instructor: http.StatusOK,
		model.Admin:      http.StatusOK,
	} {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token(t, 1, role, time.Hour))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, "role %s", role)
	}
}

type activityRecorder struct {
	seen chan uint
}

func (a *activityRecorder) UpdateLastSeen(userID uint) error {
	a.seen <- userID
	return nil
}

func TestActivityMiddleware(t *testing.T) {
	rec := &activityRecorder{seen: make(chan uint, 1)}
	r := newRouter(AuthMiddleware(&config.JWTConfig{Secret: testSecret}), ActivityMiddleware(rec))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, 42, model.Student, time.Hour))
	r.ServeHTTP(httptest.NewRecorder(), req)

	select {
	case id := <-rec.seen:
		assert.Equal(t, uint(42), id)
	case <-time.After(time.Second):
		t.Fatal("last seen was not updated")
	}
}

func TestUserRateKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/me", nil)
	c.Request.RemoteAddr = "10.0.0.1:1234"

	assert.Equal(t, "ip:10.0.0.1", UserRateKey(c))

	c.Set("user", &util.Claims{UserID: 42})
	assert.Equal(t, "user:42", UserRateKey(c))
}
