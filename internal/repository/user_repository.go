package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/messagely/messaging-api/internal/model"
	"github.com/messagely/messaging-api/internal/utils"
)

// UserRepo owns the 'users' table: registration, credential checks
// and profile lookups. The now field supplies timestamps so tests can
// pin the clock; production code leaves it at time.Now.
type UserRepo struct {
	DB  *sql.DB
	now func() time.Time
}

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db, now: time.Now} }

// WithClock overrides the repository clock. Intended for tests.
func (r *UserRepo) WithClock(now func() time.Time) *UserRepo {
	r.now = now
	return r
}

// Create registers a user. The plaintext password is bcrypt-hashed
// before it touches the database. Both join_at and last_login_at are
// initialized to the current time. A duplicate username surfaces as
// ErrUsernameExists.
func (r *UserRepo) Create(ctx context.Context, username, password, firstName, lastName, phone string, cost int) (model.User, error) {
	username = strings.TrimSpace(username)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return model.User{}, err
	}
	ts := r.now().UTC()
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, first_name, last_name, phone, join_at, last_login_at) VALUES (?,?,?,?,?,?,?)",
		username, hash, firstName, lastName, phone, ts, ts)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return model.User{}, ErrUsernameExists
		}
		return model.User{}, err
	}
	return model.User{
		Username:     username,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		Phone:        phone,
		JoinAt:       ts,
		LastLoginAt:  ts,
	}, nil
}

// Authenticate reports whether the username/password pair is valid.
// An unknown username yields (false, nil) rather than an error so
// callers cannot distinguish a missing account from a wrong password.
// The error return is reserved for store failures.
func (r *UserRepo) Authenticate(ctx context.Context, username, password string) (bool, error) {
	var hash string
	err := r.DB.QueryRowContext(ctx,
		"SELECT password_hash FROM users WHERE username=? LIMIT 1",
		username).Scan(&hash)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return utils.VerifyPassword(hash, password), nil
}

// UpdateLoginTimestamp sets last_login_at to the current time.
func (r *UserRepo) UpdateLoginTimestamp(ctx context.Context, username string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET last_login_at=? WHERE username=?",
		r.now().UTC(), username)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// All returns the public profile of every user, ordered by username.
func (r *UserRepo) All(ctx context.Context) ([]model.Profile, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT username, first_name, last_name, phone FROM users ORDER BY username")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Profile
	for rows.Next() {
		var p model.Profile
		if err := rows.Scan(&p.Username, &p.FirstName, &p.LastName, &p.Phone); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetByUsername fetches the full user record, password hash included.
// Callers decide what to expose.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT username, password_hash, first_name, last_name, phone, join_at, last_login_at FROM users WHERE username=? LIMIT 1",
		username).Scan(&u.Username, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Phone, &u.JoinAt, &u.LastLoginAt)
	if err == sql.ErrNoRows {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

// MessagesFrom lists messages sent by the user, each joined with the
// recipient's public profile.
func (r *UserRepo) MessagesFrom(ctx context.Context, username string) ([]model.UserMessage, error) {
	return r.listMessages(ctx,
		`SELECT m.id, m.body, m.sent_at, m.read_at,
		        u.username, u.first_name, u.last_name, u.phone
		 FROM messages m
		 JOIN users u ON m.to_username = u.username
		 WHERE m.from_username=?
		 ORDER BY m.id`, username)
}

// MessagesTo lists messages received by the user, each joined with
// the sender's public profile.
func (r *UserRepo) MessagesTo(ctx context.Context, username string) ([]model.UserMessage, error) {
	return r.listMessages(ctx,
		`SELECT m.id, m.body, m.sent_at, m.read_at,
		        u.username, u.first_name, u.last_name, u.phone
		 FROM messages m
		 JOIN users u ON m.from_username = u.username
		 WHERE m.to_username=?
		 ORDER BY m.id`, username)
}

func (r *UserRepo) listMessages(ctx context.Context, query, username string) ([]model.UserMessage, error) {
	rows, err := r.DB.QueryContext(ctx, query, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.UserMessage
	for rows.Next() {
		var (
			m      model.UserMessage
			readAt sql.NullTime
		)
		if err := rows.Scan(&m.ID, &m.Body, &m.SentAt, &readAt,
			&m.Counterpart.Username, &m.Counterpart.FirstName, &m.Counterpart.LastName, &m.Counterpart.Phone); err != nil {
			return nil, err
		}
		if readAt.Valid {
			t := readAt.Time
			m.ReadAt = &t
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
