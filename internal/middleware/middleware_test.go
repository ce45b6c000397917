package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"mining_rewards/internal/testutil"
	"mining_rewards/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func bearer(t *testing.T, userID string) string {
	t.Helper()
	token, err := utils.GenerateJWT(userID, "someone", secret)
	require.NoError(t, err)
	return "Bearer " + token
}

func serve(r *gin.Engine, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuthMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/me", JWTAuthMiddleware(secret), func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c))
	})

	w := serve(r, http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, http.MethodGet, "/me", "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, http.MethodGet, "/me", bearer(t, "u-1"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u-1", w.Body.String())
}

func TestAdminAndSelfGuards(t *testing.T) {
	gdb := testutil.NewDB(t)
	admin := testutil.CreateUser(t, gdb, "admin", testutil.AsAdmin())
	alice := testutil.CreateUser(t, gdb, "alice")
	bob := testutil.CreateUser(t, gdb, "bob")

	r := gin.New()
	r.Use(JWTAuthMiddleware(secret))
	r.GET("/admin", AdminOnlyMiddleware(gdb), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/users/:userId", SelfOrAdminMiddleware(gdb), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/admin", bearer(t, alice.ID)).Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/admin", bearer(t, "ghost")).Code)
	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodGet, "/admin", bearer(t, admin.ID)).Code)

	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodGet, "/users/"+alice.ID, bearer(t, alice.ID)).Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/users/"+bob.ID, bearer(t, alice.ID)).Code)
	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodGet, "/users/"+bob.ID, bearer(t, admin.ID)).Code)
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://app.example"}))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://app.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
