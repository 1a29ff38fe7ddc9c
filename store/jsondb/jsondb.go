package jsondb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/sdomino/scribble"

	"github.com/ngoduykhanh/usermgr/model"
	"github.com/ngoduykhanh/usermgr/store"
	"github.com/ngoduykhanh/usermgr/util"
)

const userCollection = "users"

type JsonDB struct {
	conn   *scribble.Driver
	dbPath string
	// mu serializes writes so the unique email check and the write
	// happen as one step
	mu sync.Mutex
}

var _ store.IStore = (*JsonDB)(nil)

// New returns a new pointer JsonDB
func New(dbPath string) (*JsonDB, error) {
	conn, err := scribble.New(dbPath, nil)
	if err != nil {
		return nil, err
	}
	ans := JsonDB{
		conn:   conn,
		dbPath: dbPath,
	}
	return &ans, nil
}

func (o *JsonDB) Init(ctx context.Context) error {
	var userPath string = path.Join(o.dbPath, userCollection)

	// create directories if they do not exist
	if _, err := os.Stat(userPath); os.IsNotExist(err) {
		if err := os.MkdirAll(userPath, os.ModePerm); err != nil {
			return fmt.Errorf("cannot create users collection: %w", err)
		}
	}
	return nil
}

// GetUsers func to get all users from the database
func (o *JsonDB) GetUsers(ctx context.Context) ([]model.User, error) {
	users := make([]model.User, 0)
	results, err := o.conn.ReadAll(userCollection)
	if errors.Is(err, fs.ErrNotExist) {
		return users, nil
	}
	if err != nil {
		return users, err
	}
	for _, i := range results {
		user := model.User{}

		if err := json.Unmarshal([]byte(i), &user); err != nil {
			return users, fmt.Errorf("cannot decode user json structure: %v", err)
		}
		users = append(users, user)
	}
	return users, nil
}

// GetUserByID func to get single user from the database
func (o *JsonDB) GetUserByID(ctx context.Context, id string) (model.User, error) {
	user := model.User{}

	// ids double as file names, anything that is not an xid never hits the disk
	if _, err := xid.FromString(id); err != nil {
		return user, store.ErrUserNotFound
	}

	if err := o.conn.Read(userCollection, id, &user); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return user, store.ErrUserNotFound
		}
		return user, err
	}

	return user, nil
}

// GetUserByEmail func to find the user owning an email address
func (o *JsonDB) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	email = util.NormalizeEmail(email)
	users, err := o.GetUsers(ctx)
	if err != nil {
		return model.User{}, err
	}
	for _, user := range users {
		if user.Email == email {
			return user, nil
		}
	}
	return model.User{}, store.ErrUserNotFound
}

// CreateUser func to add a new user to the database
func (o *JsonDB) CreateUser(ctx context.Context, user model.User) (model.User, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	user.Email = util.NormalizeEmail(user.Email)
	if err := o.checkEmailFree(ctx, user.Email, ""); err != nil {
		return model.User{}, err
	}

	user.ID = xid.New().String()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt

	if err := o.conn.Write(userCollection, user.ID, user); err != nil {
		return model.User{}, err
	}
	return user, nil
}

// UpdateUser func to save changes of an existing user
func (o *JsonDB) UpdateUser(ctx context.Context, user model.User) (model.User, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	current, err := o.GetUserByID(ctx, user.ID)
	if err != nil {
		return model.User{}, err
	}

	user.Email = util.NormalizeEmail(user.Email)
	if err := o.checkEmailFree(ctx, user.Email, user.ID); err != nil {
		return model.User{}, err
	}

	user.CreatedAt = current.CreatedAt
	user.UpdatedAt = time.Now().UTC()

	if err := o.conn.Write(userCollection, user.ID, user); err != nil {
		return model.User{}, err
	}
	return user, nil
}

// UpdateProfile func to save the self-service fields of a user
func (o *JsonDB) UpdateProfile(ctx context.Context, user model.User) (model.User, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	current, err := o.GetUserByID(ctx, user.ID)
	if err != nil {
		return model.User{}, err
	}

	email := util.NormalizeEmail(user.Email)
	if err := o.checkEmailFree(ctx, email, user.ID); err != nil {
		return model.User{}, err
	}

	current.Username = user.Username
	current.Email = email
	current.PasswordHash = user.PasswordHash
	current.UpdatedAt = time.Now().UTC()

	if err := o.conn.Write(userCollection, current.ID, current); err != nil {
		return model.User{}, err
	}
	return current, nil
}

// DeleteUser func to remove user from the database
func (o *JsonDB) DeleteUser(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, err := o.GetUserByID(ctx, id); err != nil {
		return err
	}
	return o.conn.Delete(userCollection, id)
}

// checkEmailFree must be called with mu held
func (o *JsonDB) checkEmailFree(ctx context.Context, email string, ownerID string) error {
	existing, err := o.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != ownerID {
		return store.ErrDuplicateEmail
	}
	return nil
}
