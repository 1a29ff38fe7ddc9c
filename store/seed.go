package store

import (
	"context"
	"fmt"

	"github.com/labstack/gommon/log"

	"github.com/ngoduykhanh/usermgr/model"
	"github.com/ngoduykhanh/usermgr/util"
)

// SeedAdmin creates the bootstrap administrator when the store holds no
// users yet. It reports whether a user was created.
func SeedAdmin(ctx context.Context, db IStore, username, email, password string) (bool, error) {
	users, err := db.GetUsers(ctx)
	if err != nil {
		return false, fmt.Errorf("cannot list users: %w", err)
	}
	if len(users) > 0 {
		return false, nil
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return false, err
	}

	admin, err := db.CreateUser(ctx, model.User{
		Username:     username,
		Email:        util.NormalizeEmail(email),
		PasswordHash: hash,
		IsAdmin:      true,
	})
	if err != nil {
		return false, fmt.Errorf("cannot create admin user: %w", err)
	}

	log.Infof("Created bootstrap admin user %s (%s)", admin.Username, admin.Email)
	return true, nil
}
