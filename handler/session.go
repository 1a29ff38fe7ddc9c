package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/ngoduykhanh/usermgr/auth"
	"github.com/ngoduykhanh/usermgr/model"
	"github.com/ngoduykhanh/usermgr/store"
)

// SessionCookieName is the cookie carrying the session token
const SessionCookieName = "jwt"

const currentUserKey = "user"

type userCtxKey struct{}

// Sessions moves session tokens in and out of the cookie
type Sessions struct {
	tokens *auth.TokenService
	path   string
	secure bool
}

// NewSessions scopes the cookie to path. secure should only be false for
// plain http development setups.
func NewSessions(tokens *auth.TokenService, path string, secure bool) *Sessions {
	if path == "" {
		path = "/"
	}
	return &Sessions{tokens: tokens, path: path, secure: secure}
}

// Start issues a token for userID and sets it on the response
func (s *Sessions) Start(c echo.Context, userID string) error {
	token, err := s.tokens.Issue(userID)
	if err != nil {
		return err
	}

	ttl := s.tokens.TTL()
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     s.path,
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteStrictMode,
	})
	return nil
}

// End overwrites the session cookie with an expired one
func (s *Sessions) End(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     s.path,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// Authenticate resolves the session cookie to a stored user and attaches it
// to the request. It is the only place a request becomes authenticated.
func Authenticate(sessions *Sessions, db store.IStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				return respondError(c, ErrMissingCredential)
			}

			userID, err := sessions.tokens.Verify(cookie.Value)
			if err != nil {
				log.Debugf("Rejected session token from %s: %v", c.RealIP(), err)
				return respondError(c, ErrInvalidCredential)
			}

			user, err := db.GetUserByID(c.Request().Context(), userID)
			if errors.Is(err, store.ErrUserNotFound) {
				return respondError(c, ErrUnknownSubject)
			}
			if err != nil {
				return respondError(c, err)
			}

			setCurrentUser(c, user.Info())
			return next(c)
		}
	}
}

// AuthorizeAdmin lets the request through only for an attached admin. It
// must run after Authenticate; without an identity the request is refused.
func AuthorizeAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok := currentUser(c)
		if !ok || !user.IsAdmin {
			return respondError(c, ErrInsufficientPrivilege)
		}
		return next(c)
	}
}

// UserFromContext returns the identity attached by Authenticate
func UserFromContext(ctx context.Context) (model.UserInfo, bool) {
	user, ok := ctx.Value(userCtxKey{}).(model.UserInfo)
	return user, ok
}

func setCurrentUser(c echo.Context, user model.UserInfo) {
	c.Set(currentUserKey, user)
	req := c.Request()
	c.SetRequest(req.WithContext(context.WithValue(req.Context(), userCtxKey{}, user)))
}

// currentUser to get the logged in user
func currentUser(c echo.Context) (model.UserInfo, bool) {
	user, ok := c.Get(currentUserKey).(model.UserInfo)
	return user, ok
}
