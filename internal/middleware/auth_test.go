package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/catalog-service/internal/auth"
)

func newAuthRouter(m *auth.Manager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", JWTAuth(m), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": UserID(c)})
	})
	return r
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	m := auth.NewManager("test-secret", 15*time.Minute, time.Hour)
	token, err := m.IssueAccess(42)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	newAuthRouter(m).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":42`)
}

func TestJWTAuthRejectsMissingAndBadTokens(t *testing.T) {
	m := auth.NewManager("test-secret", 15*time.Minute, time.Hour)
	router := newAuthRouter(m)

	for name, header := range map[string]string{
		"missing":      "",
		"not bearer":   "Basic abc",
		"garbage":      "Bearer not.a.jwt",
		"wrong secret": "Bearer " + mustIssue(t, auth.NewManager("other", time.Minute, time.Hour)),
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, name)
	}
}

func mustIssue(t *testing.T, m *auth.Manager) string {
	t.Helper()
	token, err := m.IssueAccess(1)
	require.NoError(t, err)
	return token
}

func TestInternalKeyAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/internal", InternalKeyAuth("sekret"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	cases := []struct {
		name   string
		header string
		value  string
		want   int
	}{
		{"valid header key", "X-Internal-API-Key", "sekret", http.StatusNoContent},
		{"valid bearer key", "Authorization", "Bearer sekret", http.StatusNoContent},
		{"wrong key", "X-Internal-API-Key", "pogresan", http.StatusUnauthorized},
		{"missing key", "", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/internal", nil)
		if tc.header != "" {
			req.Header.Set(tc.header, tc.value)
		}
		r.ServeHTTP(w, req)
		assert.Equal(t, tc.want, w.Code, tc.name)
	}
}

func TestRateLimitBlocksBursts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ping", RateLimit(1, 2), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
