package store

import (
	"context"
	"errors"

	"github.com/ngoduykhanh/usermgr/model"
)

var (
	// ErrUserNotFound is returned when no user matches the lookup
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when another user already owns the email
	ErrDuplicateEmail = errors.New("user already exists")
)

// IStore is the credential store. Implementations assign ids and maintain
// the timestamps; CreateUser and UpdateUser keep emails unique.
type IStore interface {
	Init(ctx context.Context) error
	GetUsers(ctx context.Context) ([]model.User, error)
	GetUserByID(ctx context.Context, id string) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	CreateUser(ctx context.Context, user model.User) (model.User, error)
	UpdateUser(ctx context.Context, user model.User) (model.User, error)
	// UpdateProfile saves the username, email and password hash of an
	// existing user. The admin flag is left as stored.
	UpdateProfile(ctx context.Context, user model.User) (model.User, error)
	DeleteUser(ctx context.Context, id string) error
}
