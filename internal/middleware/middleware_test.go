package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/lalith-99/dormlink/internal/auth"
	"github.com/lalith-99/dormlink/internal/models"
	"github.com/lalith-99/dormlink/internal/session"
)

const secret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func whoami(c *gin.Context) {
	fromCtx, _ := session.FromContext(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"user_id":  GetIdentity(c).UserID,
		"from_ctx": fromCtx.Username,
	})
}

func TestAuthMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/me", AuthMiddleware(secret), whoami)

	token, err := auth.GenerateToken(session.Identity{UserID: 3, Username: "alice", Role: models.RoleStudent}, secret, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		url    string
		header string
		status int
		body   string
	}{
		{name: "bearer header", url: "/me", header: "Bearer " + token, status: http.StatusOK, body: `"from_ctx":"alice"`},
		{name: "query token", url: "/me?token=" + token, status: http.StatusOK, body: `"user_id":3`},
		{name: "missing", url: "/me", status: http.StatusUnauthorized, body: "missing authorization header"},
		{name: "wrong scheme", url: "/me", header: "Basic abc", status: http.StatusUnauthorized, body: "expected: Bearer"},
		{name: "bad token", url: "/me", header: "Bearer nope", status: http.StatusUnauthorized, body: "invalid or expired token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestGetIdentityWithoutAuth(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, session.Identity{}, GetIdentity(c))
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := gin.New()
	r.Use(RequestLogger(zap.New(core)))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	t.Run("generates an id", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		id := w.Header().Get(HeaderRequestID)
		assert.Len(t, id, 36)
		entries := logs.TakeAll()
		require.Len(t, entries, 1)
		assert.Equal(t, id, entries[0].ContextMap()["request_id"])
		assert.Equal(t, int64(http.StatusNoContent), entries[0].ContextMap()["status"])
	})

	t.Run("keeps an incoming id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(HeaderRequestID, "abc-123")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, "abc-123", w.Header().Get(HeaderRequestID))
		logs.TakeAll()
	})
}
