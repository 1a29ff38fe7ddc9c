// Package mysqldb provides a MySQL storage backend for the user store
package mysqldb

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/labstack/gommon/log"
	"github.com/rs/xid"

	"github.com/ngoduykhanh/usermgr/model"
	"github.com/ngoduykhanh/usermgr/store"
	"github.com/ngoduykhanh/usermgr/util"
)

// duplicate entry for a unique key
const errDuplicateEntry = 1062

const selectUser = "SELECT id, username, email, password_hash, is_admin, created_at, updated_at FROM users"

//go:embed schema.sql
var schema string

// MySQLDB - Representation of MySQL database backend
type MySQLDB struct {
	conn   *sql.DB
	schema string
	dbName string
}

var _ store.IStore = (*MySQLDB)(nil)

// New returns pointer to MySQL database
func New(uname string, pwd string, host string, port int, database string, tls string) (*MySQLDB, error) {
	// Set connection config
	config := mysql.NewConfig()
	config.User = uname
	config.Passwd = pwd
	config.Net = "tcp"
	config.Addr = fmt.Sprintf("%s:%d", host, port)
	config.DBName = database
	config.MultiStatements = true
	config.ParseTime = true
	config.TLSConfig = tls
	// report matched rows on UPDATE so an unchanged row is not mistaken for a missing one
	config.ClientFoundRows = true

	// Open connection pool
	conn, err := sql.Open("mysql", config.FormatDSN())
	if err != nil {
		return nil, err
	}
	conn.SetConnMaxLifetime(time.Minute * 3)
	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(10)

	// Test the connection
	if err := conn.Ping(); err != nil {
		return nil, err
	}

	return NewFromConn(conn, database), nil
}

// NewFromConn wraps an already opened connection pool
func NewFromConn(conn *sql.DB, database string) *MySQLDB {
	return &MySQLDB{
		conn:   conn,
		schema: schema,
		dbName: database,
	}
}

// Init initializes the database
func (o *MySQLDB) Init(ctx context.Context) error {
	// Check if database is empty
	var tableCount int
	err := o.conn.QueryRowContext(
		ctx,
		"SELECT COUNT(DISTINCT `table_name`) FROM `information_schema`.`columns` WHERE `table_schema` = ?",
		o.dbName,
	).Scan(&tableCount)
	if err != nil {
		return err
	}

	if tableCount == 0 {
		log.Info("Initializing database schema")
		if _, err := o.conn.ExecContext(ctx, o.schema); err != nil {
			return fmt.Errorf("cannot create schema: %w", err)
		}
	}

	return nil
}

// GetUsers func to get all users from the database
func (o *MySQLDB) GetUsers(ctx context.Context) ([]model.User, error) {
	users := make([]model.User, 0)

	rows, err := o.conn.QueryContext(ctx, selectUser+" ORDER BY created_at;")
	if err != nil {
		return users, err
	}
	defer rows.Close()

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return users, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// GetUserByID func to get single user from the database
func (o *MySQLDB) GetUserByID(ctx context.Context, id string) (model.User, error) {
	return o.getUser(ctx, selectUser+" WHERE id = ?;", id)
}

// GetUserByEmail func to find the user owning an email address
func (o *MySQLDB) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return o.getUser(ctx, selectUser+" WHERE email = ?;", util.NormalizeEmail(email))
}

// CreateUser func to add a new user to the database
func (o *MySQLDB) CreateUser(ctx context.Context, user model.User) (model.User, error) {
	user.ID = xid.New().String()
	user.Email = util.NormalizeEmail(user.Email)
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt

	_, err := o.conn.ExecContext(
		ctx,
		"INSERT INTO users (id, username, email, password_hash, is_admin, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?);",
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.IsAdmin,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return model.User{}, mapError(err)
	}
	return user, nil
}

// UpdateUser func to save changes of an existing user
func (o *MySQLDB) UpdateUser(ctx context.Context, user model.User) (model.User, error) {
	res, err := o.conn.ExecContext(
		ctx,
		"UPDATE users SET username = ?, email = ?, password_hash = ?, is_admin = ?, updated_at = ? WHERE id = ?;",
		user.Username,
		util.NormalizeEmail(user.Email),
		user.PasswordHash,
		user.IsAdmin,
		time.Now().UTC(),
		user.ID,
	)
	if err != nil {
		return model.User{}, mapError(err)
	}
	if err := expectRow(res); err != nil {
		return model.User{}, err
	}
	return o.GetUserByID(ctx, user.ID)
}

// UpdateProfile func to save the self-service fields of a user
func (o *MySQLDB) UpdateProfile(ctx context.Context, user model.User) (model.User, error) {
	res, err := o.conn.ExecContext(
		ctx,
		"UPDATE users SET username = ?, email = ?, password_hash = ?, updated_at = ? WHERE id = ?;",
		user.Username,
		util.NormalizeEmail(user.Email),
		user.PasswordHash,
		time.Now().UTC(),
		user.ID,
	)
	if err != nil {
		return model.User{}, mapError(err)
	}
	if err := expectRow(res); err != nil {
		return model.User{}, err
	}
	return o.GetUserByID(ctx, user.ID)
}

// DeleteUser func to remove user from the database
func (o *MySQLDB) DeleteUser(ctx context.Context, id string) error {
	res, err := o.conn.ExecContext(ctx, "DELETE FROM users WHERE id = ?;", id)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (o *MySQLDB) getUser(ctx context.Context, query string, arg string) (model.User, error) {
	user, err := scanUser(o.conn.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, store.ErrUserNotFound
	}
	return user, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (model.User, error) {
	user := model.User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.IsAdmin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrUserNotFound
	}
	return nil
}

func mapError(err error) error {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == errDuplicateEntry {
		return store.ErrDuplicateEmail
	}
	return err
}
