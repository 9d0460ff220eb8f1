package route

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"swachhconnect/controller"
	"swachhconnect/models"
	"swachhconnect/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "route-secret"

func newRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := controller.New(nil, nil, nil, nil, nil, nil, nil, controller.Settings{JWTSecret: secret})
	limiter := Register(r, h, Options{JWTSecret: secret, AuthRateLimit: 2})
	t.Cleanup(limiter.Stop)
	return r
}

func serve(r *gin.Engine, method, path, role string) int {
	req := httptest.NewRequest(method, path, nil)
	if role != "" {
		tok, _ := utils.SignedToken(secret, utils.SignedDetails{UserID: "u-" + role, Role: role})
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestHealthz(t *testing.T) {
	assert.Equal(t, http.StatusOK, serve(newRouter(t), http.MethodGet, "/healthz", ""))
}

// Role checks abort before any handler touches a store.
func TestRoleGates(t *testing.T) {
	r := newRouter(t)
	tests := []struct {
		method, path, role string
		want               int
	}{
		{http.MethodGet, "/issues", "", http.StatusUnauthorized},
		{http.MethodGet, "/issues", models.RoleCitizen, http.StatusForbidden},
		{http.MethodGet, "/issues/stream", models.RoleCitizen, http.StatusForbidden},
		{http.MethodPost, "/issues/abc/reply", models.RoleCitizen, http.StatusForbidden},
		{http.MethodDelete, "/issues/abc", models.RoleCitizen, http.StatusForbidden},
		{http.MethodGet, "/reports/csv", models.RoleCitizen, http.StatusForbidden},
		{http.MethodDelete, "/citizens/abc", models.RoleCitizen, http.StatusForbidden},
		{http.MethodPost, "/issues", models.RoleMunicipal, http.StatusForbidden},
		{http.MethodGet, "/issues/mine", models.RoleMunicipal, http.StatusForbidden},
		{http.MethodPost, "/users/password", models.RoleCitizen, http.StatusForbidden},
		{http.MethodGet, "/issues/abc", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path+" as "+tt.role, func(t *testing.T) {
			assert.Equal(t, tt.want, serve(r, tt.method, tt.path, tt.role))
		})
	}
}

func TestAuthRoutesAreRateLimited(t *testing.T) {
	r := newRouter(t)
	var codes []int
	for i := 0; i < 3; i++ {
		codes = append(codes, serve(r, http.MethodPost, "/login", ""))
	}
	require.Len(t, codes, 3)
	assert.Equal(t, http.StatusBadRequest, codes[0])
	assert.Equal(t, http.StatusTooManyRequests, codes[2])
}
