package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/harper/dealdesk/internal/auth"
	"github.com/harper/dealdesk/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuth(t *testing.T) {
	tc := testutil.NewTestContext(t)
	defer tc.Cleanup()

	handler := Auth(tc.JWTService)(okHandler())

	t.Run("valid bearer token", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/", nil, tc.Token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("token from cookie", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "GET", "/", nil)
		req.AddCookie(&http.Cookie{Name: "token", Value: tc.Token})
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "GET", "/", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/", nil, "not-a-jwt")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestRequireActive(t *testing.T) {
	tc := testutil.NewTestContext(t)
	defer tc.Cleanup()

	authService := auth.NewService(tc.DB, tc.JWTService)
	handler := Auth(tc.JWTService)(RequireActive(authService)(okHandler()))

	t.Run("active user passes", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/", nil, tc.Token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("inactive user is routed to the access-request flow", func(t *testing.T) {
		idle := testutil.CreateTestMember(t, tc.DB, tc.Org, "idle@example.com", false)
		token := testutil.GenerateTestToken(t, tc.JWTService, idle)

		req := testutil.AuthenticatedRequest(t, "GET", "/", nil, token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Contains(t, rr.Body.String(), `"code":"inactive"`)
	})

	t.Run("revocation takes effect without a new token", func(t *testing.T) {
		member := testutil.CreateTestMember(t, tc.DB, tc.Org, "revoked@example.com", true)
		token := testutil.GenerateTestToken(t, tc.JWTService, member)

		req := testutil.AuthenticatedRequest(t, "GET", "/", nil, token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)

		member.IsActive = false
		tc.DB.Save(member)

		req = testutil.AuthenticatedRequest(t, "GET", "/", nil, token)
		rr = httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestRequireAdmin(t *testing.T) {
	tc := testutil.NewTestContext(t)
	defer tc.Cleanup()

	authService := auth.NewService(tc.DB, tc.JWTService)
	handler := Auth(tc.JWTService)(RequireActive(authService)(RequireAdmin(okHandler())))

	t.Run("admin passes", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/", nil, tc.Token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("plain member is forbidden", func(t *testing.T) {
		member := testutil.CreateTestMember(t, tc.DB, tc.Org, "plain@example.com", true)
		token := testutil.GenerateTestToken(t, tc.JWTService, member)

		req := testutil.AuthenticatedRequest(t, "GET", "/", nil, token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}
