package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/go-playground/validator.v9"

	"github.com/ngoduykhanh/usermgr/store"
)

// apiError is a failure that maps onto a fixed status and client message
type apiError struct {
	code    int
	message string
}

func (e *apiError) Error() string {
	return e.message
}

var (
	ErrMissingCredential     = &apiError{http.StatusUnauthorized, "Not authorized, no token"}
	ErrInvalidCredential     = &apiError{http.StatusUnauthorized, "Not authorized, token failed"}
	ErrUnknownSubject        = &apiError{http.StatusUnauthorized, "User not found"}
	ErrInsufficientPrivilege = &apiError{http.StatusForbidden, "Not authorized as an admin"}
	ErrInvalidLogin          = &apiError{http.StatusUnauthorized, "Invalid email or password"}
	ErrBadPostData           = &apiError{http.StatusBadRequest, "Bad post data"}
	ErrAdminUndeletable      = &apiError{http.StatusBadRequest, "Cannot delete admin user"}
	ErrOnlyJSON              = &apiError{http.StatusBadRequest, "Only JSON allowed"}
)

// respondError writes the json error body for err. Anything that is not a
// known kind is a server side failure and gets logged.
func respondError(c echo.Context, err error) error {
	var apiErr *apiError
	switch {
	case errors.As(err, &apiErr):
		return c.JSON(apiErr.code, jsonHTTPResponse{false, apiErr.message})
	case errors.Is(err, store.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, jsonHTTPResponse{false, "User not found"})
	case errors.Is(err, store.ErrDuplicateEmail):
		return c.JSON(http.StatusConflict, jsonHTTPResponse{false, "User already exists"})
	case errors.Is(err, bcrypt.ErrPasswordTooLong):
		return c.JSON(ErrBadPostData.code, jsonHTTPResponse{false, ErrBadPostData.message})
	default:
		return createError(c, err, "Cannot access database")
	}
}

// validationError turns validator output into a 400 with readable messages
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &apiError{http.StatusBadRequest, err.Error()}
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "email":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid email address", fe.Field()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		case "maxbytes":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s bytes", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return &apiError{http.StatusBadRequest, strings.Join(msgs, ", ")}
}

func createError(c echo.Context, err error, msg string) error {
	log.Error(msg, ": ", err)
	return c.JSON(
		http.StatusInternalServerError,
		jsonHTTPResponse{
			false,
			msg})
}
