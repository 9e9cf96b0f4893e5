package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qartha/idfportal/internal/auth"
	"github.com/qartha/idfportal/internal/core"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name    string
		trusted []string
		remote  string
		headers map[string]string
		want    string
	}{
		{"untrusted keeps remote", []string{"10.0.0.0/8"}, "203.0.113.5:1234", map[string]string{"X-Real-IP": "1.2.3.4"}, "203.0.113.5:1234"},
		{"trusted uses x-real-ip", []string{"10.0.0.0/8"}, "10.1.2.3:1234", map[string]string{"X-Real-IP": "1.2.3.4"}, "1.2.3.4"},
		{"trusted uses first forwarded", []string{"10.1.2.3"}, "10.1.2.3:1234", map[string]string{"X-Forwarded-For": "5.6.7.8, 10.1.2.3"}, "5.6.7.8"},
		{"invalid header ignored", []string{"10.0.0.0/8"}, "10.1.2.3:1234", map[string]string{"X-Real-IP": "nope"}, "10.1.2.3:1234"},
		{"no trusted proxies", nil, "10.1.2.3:1234", map[string]string{"X-Real-IP": "1.2.3.4"}, "10.1.2.3:1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	assert.Equal(t, "192.0.2.1", ClientIP(req))
}

func actorProbe(got *core.Actor, seen *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got, *seen = core.ActorFromContext(r.Context())
	})
}

func TestAuthenticate(t *testing.T) {
	tokens, err := auth.NewManager(secret, time.Hour)
	require.NoError(t, err)
	jwt, _, err := tokens.Issue(42, "visitor")
	require.NoError(t, err)

	mw := Authenticate(tokens, "static-admin-token")

	t.Run("cookie session", func(t *testing.T) {
		var a core.Actor
		var ok bool
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: jwt})
		mw(actorProbe(&a, &ok)).ServeHTTP(httptest.NewRecorder(), req)
		require.True(t, ok)
		assert.Equal(t, int64(42), a.UserID)
		assert.Equal(t, core.RoleVisitor, a.Role)
	})

	t.Run("admin bearer token", func(t *testing.T) {
		var a core.Actor
		var ok bool
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer static-admin-token")
		mw(actorProbe(&a, &ok)).ServeHTTP(httptest.NewRecorder(), req)
		require.True(t, ok)
		assert.True(t, a.IsAdmin())
	})

	t.Run("bad token is anonymous", func(t *testing.T) {
		var a core.Actor
		var ok bool
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		mw(actorProbe(&a, &ok)).ServeHTTP(httptest.NewRecorder(), req)
		assert.False(t, ok)
	})
}

func TestRequireAdmin(t *testing.T) {
	var gotErr error
	onErr := func(w http.ResponseWriter, r *http.Request, err error) {
		gotErr = err
		w.WriteHeader(core.HTTPStatus(err))
	}
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := RequireAdmin(onErr)(ok)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.ErrorIs(t, gotErr, core.ErrUnauthenticated)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = req.WithContext(core.ContextWithActor(req.Context(), core.Actor{UserID: 1, Role: core.RoleVisitor}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req = req.WithContext(core.ContextWithActor(req.Context(), core.Actor{Role: core.RoleAdmin}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	RequireUser(onErr)(ok).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
