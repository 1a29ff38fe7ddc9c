package handler

import (
	"errors"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/ngoduykhanh/usermgr/emailer"
	"github.com/ngoduykhanh/usermgr/model"
	"github.com/ngoduykhanh/usermgr/store"
	"github.com/ngoduykhanh/usermgr/util"
)

// dummyHash is verified against on unknown emails so both login failures
// spend the same bcrypt work
var dummyHash = sync.OnceValue(func() string {
	hash, err := util.HashPassword("not-a-real-password")
	if err != nil {
		log.Errorf("Cannot create dummy password hash: %v", err)
	}
	return hash
})

// Health handler
func Health() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, jsonHTTPResponse{true, "ok"})
	}
}

// RegisterUser handler creates an account and signs it in
func RegisterUser(db store.IStore, sessions *Sessions) echo.HandlerFunc {
	return func(c echo.Context) error {
		var payload RegisterPayload
		if err := c.Bind(&payload); err != nil {
			return respondError(c, ErrBadPostData)
		}
		payload.normalize()
		if err := c.Validate(&payload); err != nil {
			return respondError(c, validationError(err))
		}

		user, err := createUser(c, db, payload)
		if err != nil {
			return respondError(c, err)
		}

		if err := sessions.Start(c, user.ID); err != nil {
			return createError(c, err, "Cannot create session")
		}

		log.Infof("Registered user %s (%s)", user.Username, user.ID)
		return c.JSON(http.StatusCreated, user.Info())
	}
}

// Login handler checks the credentials and sets the session cookie
func Login(db store.IStore, sessions *Sessions) echo.HandlerFunc {
	return func(c echo.Context) error {
		var payload LoginPayload
		if err := c.Bind(&payload); err != nil {
			return respondError(c, ErrBadPostData)
		}
		payload.Email = util.NormalizeEmail(payload.Email)
		if err := c.Validate(&payload); err != nil {
			return respondError(c, validationError(err))
		}

		user, err := db.GetUserByEmail(c.Request().Context(), payload.Email)
		if errors.Is(err, store.ErrUserNotFound) {
			_, _ = util.VerifyHash(dummyHash(), payload.Password)
			log.Warnf("Login attempt for unknown email %s", payload.Email)
			return respondError(c, ErrInvalidLogin)
		}
		if err != nil {
			return respondError(c, err)
		}

		match, err := util.VerifyHash(user.PasswordHash, payload.Password)
		if err != nil {
			return createError(c, err, "Cannot verify password")
		}
		if !match {
			log.Warnf("Invalid password for user %s", user.ID)
			return respondError(c, ErrInvalidLogin)
		}

		if err := sessions.Start(c, user.ID); err != nil {
			return createError(c, err, "Cannot create session")
		}

		log.Infof("Logged in user %s", user.ID)
		return c.JSON(http.StatusOK, user.Info())
	}
}

// Logout handler to clear the session cookie
func Logout(sessions *Sessions) echo.HandlerFunc {
	return func(c echo.Context) error {
		sessions.End(c)
		return c.JSON(http.StatusOK, jsonHTTPResponse{true, "Logged out successfully"})
	}
}

// GetProfile handler returns the authenticated user
func GetProfile() echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok := currentUser(c)
		if !ok {
			return respondError(c, ErrMissingCredential)
		}
		return c.JSON(http.StatusOK, user)
	}
}

// UpdateProfile handler to change the authenticated user's own account
func UpdateProfile(db store.IStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		current, ok := currentUser(c)
		if !ok {
			return respondError(c, ErrMissingCredential)
		}

		var payload ProfilePayload
		if err := c.Bind(&payload); err != nil {
			return respondError(c, ErrBadPostData)
		}
		payload.normalize()
		if err := c.Validate(&payload); err != nil {
			return respondError(c, validationError(err))
		}

		ctx := c.Request().Context()
		user, err := db.GetUserByID(ctx, current.ID)
		if errors.Is(err, store.ErrUserNotFound) {
			return respondError(c, ErrUnknownSubject)
		}
		if err != nil {
			return respondError(c, err)
		}

		if payload.Username != "" {
			user.Username = payload.Username
		}
		if payload.Email != "" {
			user.Email = payload.Email
		}
		if payload.Password != "" {
			hash, err := util.HashPassword(payload.Password)
			if err != nil {
				return respondError(c, err)
			}
			user.PasswordHash = hash
		}

		// the admin flag read above may be stale, UpdateProfile never writes it
		user, err = db.UpdateProfile(ctx, user)
		if err != nil {
			return respondError(c, err)
		}

		log.Infof("Updated profile of user %s", user.ID)
		return c.JSON(http.StatusOK, user.Info())
	}
}

// GetUsers handler lists every account
func GetUsers(db store.IStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		users, err := db.GetUsers(c.Request().Context())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, model.UserInfos(users))
	}
}

// GetUser handler
func GetUser(db store.IStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := db.GetUserByID(c.Request().Context(), c.Param("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, user.Info())
	}
}

// UpdateUser handler is the admin side update, the only way to change the admin flag
func UpdateUser(db store.IStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		var payload UserUpdatePayload
		if err := c.Bind(&payload); err != nil {
			return respondError(c, ErrBadPostData)
		}
		payload.normalize()
		if err := c.Validate(&payload); err != nil {
			return respondError(c, validationError(err))
		}

		ctx := c.Request().Context()
		user, err := db.GetUserByID(ctx, c.Param("id"))
		if err != nil {
			return respondError(c, err)
		}

		if payload.Username != "" {
			user.Username = payload.Username
		}
		if payload.Email != "" {
			user.Email = payload.Email
		}
		if payload.IsAdmin != nil {
			user.IsAdmin = *payload.IsAdmin
		}

		user, err = db.UpdateUser(ctx, user)
		if err != nil {
			return respondError(c, err)
		}

		admin, _ := currentUser(c)
		log.Infof("User %s updated by %s", user.ID, admin.ID)
		return c.JSON(http.StatusOK, user.Info())
	}
}

// DeleteUser handler removes a regular account
func DeleteUser(db store.IStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		user, err := db.GetUserByID(ctx, c.Param("id"))
		if err != nil {
			return respondError(c, err)
		}
		if user.IsAdmin {
			return respondError(c, ErrAdminUndeletable)
		}

		if err := db.DeleteUser(ctx, user.ID); err != nil {
			return respondError(c, err)
		}

		admin, _ := currentUser(c)
		log.Infof("User %s removed by %s", user.ID, admin.ID)
		return c.JSON(http.StatusOK, jsonHTTPResponse{true, "User removed"})
	}
}

// AddUser handler lets an admin create an account. When mailer is set the
// new user receives a welcome mail; a mail failure does not undo the account.
func AddUser(db store.IStore, mailer emailer.Emailer, subject string) echo.HandlerFunc {
	return func(c echo.Context) error {
		var payload RegisterPayload
		if err := c.Bind(&payload); err != nil {
			return respondError(c, ErrBadPostData)
		}
		payload.normalize()
		if err := c.Validate(&payload); err != nil {
			return respondError(c, validationError(err))
		}

		user, err := createUser(c, db, payload)
		if err != nil {
			return respondError(c, err)
		}

		admin, _ := currentUser(c)
		log.Infof("User %s created by %s", user.ID, admin.ID)

		if mailer != nil {
			if err := emailer.SendWelcome(mailer, subject, user.Info()); err != nil {
				log.Warnf("Cannot send welcome email to %s: %v", user.Email, err)
			}
		}

		return c.JSON(http.StatusCreated, user.Info())
	}
}

func createUser(c echo.Context, db store.IStore, payload RegisterPayload) (model.User, error) {
	hash, err := util.HashPassword(payload.Password)
	if err != nil {
		return model.User{}, err
	}

	return db.CreateUser(c.Request().Context(), model.User{
		Username:     payload.Username,
		Email:        payload.Email,
		PasswordHash: hash,
	})
}
