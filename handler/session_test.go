package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngoduykhanh/usermgr/auth"
	"github.com/ngoduykhanh/usermgr/model"
)

// guarded mounts a handler behind the given middlewares and records
// whether it ran and with which identity
type guarded struct {
	e       *echo.Echo
	reached bool
	user    model.UserInfo
	ctxUser model.UserInfo
}

func newGuarded(mws ...echo.MiddlewareFunc) *guarded {
	g := &guarded{e: echo.New()}
	g.e.GET("/whoami", func(c echo.Context) error {
		g.reached = true
		g.user, _ = currentUser(c)
		g.ctxUser, _ = UserFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	}, mws...)
	return g
}

func (g *guarded) call(cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	g.e.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticate_MissingCookie(t *testing.T) {
	env := newTestEnv(t)
	g := newGuarded(Authenticate(env.sessions, env.db))

	rec := g.call(nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, jsonHTTPResponse{false, "Not authorized, no token"}, decodeResponse(t, rec))
	assert.False(t, g.reached)

	rec = g.call(&http.Cookie{Name: SessionCookieName, Value: ""})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Not authorized, no token", decodeResponse(t, rec).Message)
	assert.False(t, g.reached)
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "john", "john@example.com", "secret", false)
	g := newGuarded(Authenticate(env.sessions, env.db))

	other, err := auth.NewTokenService([]byte("another-secret"), testTTL)
	require.NoError(t, err)
	forged, err := other.Issue(user.ID)
	require.NoError(t, err)

	for name, value := range map[string]string{
		"garbage":      "not-a-token",
		"other secret": forged,
	} {
		t.Run(name, func(t *testing.T) {
			g.reached = false
			rec := g.call(&http.Cookie{Name: SessionCookieName, Value: value})
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, jsonHTTPResponse{false, "Not authorized, token failed"}, decodeResponse(t, rec))
			assert.False(t, g.reached)
		})
	}
}

func TestAuthenticate_DeletedUser(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "john", "john@example.com", "secret", false)
	cookie := env.cookieFor(t, user.ID)
	require.NoError(t, env.db.DeleteUser(context.Background(), user.ID))

	g := newGuarded(Authenticate(env.sessions, env.db))
	rec := g.call(cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, jsonHTTPResponse{false, "User not found"}, decodeResponse(t, rec))
	assert.False(t, g.reached)
}

func TestAuthenticate_StoreFailure(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "john", "john@example.com", "secret", false)

	g := newGuarded(Authenticate(env.sessions, brokenStore{}))
	rec := g.call(env.cookieFor(t, user.ID))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, decodeResponse(t, rec).Status)
	assert.False(t, g.reached)
}

func TestAuthenticate_AttachesIdentity(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "john", "john@example.com", "secret", false)
	g := newGuarded(Authenticate(env.sessions, env.db))

	rec := g.call(env.cookieFor(t, user.ID))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, g.reached)
	assert.Equal(t, user.ID, g.user.ID)
	assert.Equal(t, "john@example.com", g.user.Email)
	assert.Equal(t, g.user, g.ctxUser)
}

func TestAuthorizeAdmin_RejectsRegularUser(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "john", "john@example.com", "secret", false)

	var attached model.UserInfo
	spy := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			attached, _ = currentUser(c)
			return next(c)
		}
	}
	g := newGuarded(Authenticate(env.sessions, env.db), spy, AuthorizeAdmin)

	rec := g.call(env.cookieFor(t, user.ID))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, jsonHTTPResponse{false, "Not authorized as an admin"}, decodeResponse(t, rec))
	assert.False(t, g.reached)
	assert.Equal(t, user.ID, attached.ID)
}

func TestAuthorizeAdmin_AllowsAdmin(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "root", "root@example.com", "secret", true)
	g := newGuarded(Authenticate(env.sessions, env.db), AuthorizeAdmin)

	rec := g.call(env.cookieFor(t, admin.ID))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, g.reached)
	assert.True(t, g.user.IsAdmin)
}

func TestAuthorizeAdmin_WithoutIdentity(t *testing.T) {
	g := newGuarded(AuthorizeAdmin)

	rec := g.call(nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, g.reached)
}

func TestSessions_CookieAttributes(t *testing.T) {
	env := newTestEnv(t)
	e := echo.New()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
	require.NoError(t, env.sessions.Start(c, "user-1"))

	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	assert.Equal(t, "/api", cookie.Path)
	assert.True(t, cookie.HttpOnly)
	assert.False(t, cookie.Secure)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.Equal(t, int(testTTL.Seconds()), cookie.MaxAge)

	userID, err := env.tokens.Verify(cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
	env.sessions.End(c)

	cookie = sessionCookie(rec)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Less(t, cookie.MaxAge, 0)
	assert.Equal(t, "/api", cookie.Path)
}

func TestNewSessions_DefaultPath(t *testing.T) {
	s := NewSessions(nil, "", true)
	assert.Equal(t, "/", s.path)
	assert.True(t, s.secure)
}
