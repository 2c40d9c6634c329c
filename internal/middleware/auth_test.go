package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"go-auth-service/internal/model"
)

type fakeValidator struct {
	claims *model.AuthClaims
	err    error
}

func (v *fakeValidator) ValidateToken(_ string, _ string) (*model.AuthClaims, error) {
	return v.claims, v.err
}

func okHandler(t *testing.T, sawClaims **model.AuthClaims) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		require.True(t, ok)
		*sawClaims = claims
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuthAcceptsValidBearer(t *testing.T) {
	t.Parallel()

	claims := &model.AuthClaims{UserID: "u1", Username: "alice", Role: "viewer"}
	m := NewAuthMiddleware(&fakeValidator{claims: claims})

	var saw *model.AuthClaims
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()

	m.RequireAuth(okHandler(t, &saw)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, claims, saw)
}

func TestRequireAuthRejectsUniformly(t *testing.T) {
	t.Parallel()

	m := NewAuthMiddleware(&fakeValidator{err: model.ErrInvalidAccessToken})
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatal("handler must not run")
	})

	cases := map[string]func(*http.Request){
		"missing header":   func(_ *http.Request) {},
		"not bearer":       func(r *http.Request) { r.Header.Set("Authorization", "Basic Zm9v") },
		"empty token":      func(r *http.Request) { r.Header.Set("Authorization", "Bearer   ") },
		"rejected token":   func(r *http.Request) { r.Header.Set("Authorization", "Bearer bad") },
	}

	var bodies []string
	for name, setup := range cases {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		setup(req)
		rec := httptest.NewRecorder()

		m.RequireAuth(next).ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code, name)
		bodies = append(bodies, rec.Body.String())
	}

	// All failure modes produce byte-identical responses.
	for _, body := range bodies[1:] {
		require.Equal(t, bodies[0], body)
	}
}

func TestRequireRolesEnforcesRole(t *testing.T) {
	t.Parallel()

	m := NewAuthMiddleware(&fakeValidator{claims: &model.AuthClaims{UserID: "u1", Role: "viewer"}})
	var saw *model.AuthClaims
	chain := m.RequireAuth(m.RequireRoles("admin")(okHandler(t, &saw)))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	admin := NewAuthMiddleware(&fakeValidator{claims: &model.AuthClaims{UserID: "u2", Role: "Admin"}})
	chain = admin.RequireAuth(admin.RequireRoles("admin")(okHandler(t, &saw)))

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec = httptest.NewRecorder()
	chain.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, "role check is case-insensitive")
}

func TestRequireRolesWithoutAuthContextRejects(t *testing.T) {
	t.Parallel()

	m := NewAuthMiddleware(&fakeValidator{})
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	})

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	rec := httptest.NewRecorder()
	m.RequireRoles("admin")(next).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
