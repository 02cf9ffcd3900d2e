package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/messagely/messaging-api/internal/model"
)

// MessageRepo owns the 'messages' table. Messages are insert-only
// except for the single read_at transition performed by MarkRead.
type MessageRepo struct {
	DB  *sql.DB
	now func() time.Time
}

func NewMessageRepo(db *sql.DB) *MessageRepo { return &MessageRepo{DB: db, now: time.Now} }

// WithClock overrides the repository clock. Intended for tests.
func (r *MessageRepo) WithClock(now func() time.Time) *MessageRepo {
	r.now = now
	return r
}

// Create inserts a message with sent_at set to the current time and
// read_at absent. The foreign keys on from_username/to_username
// enforce that both parties exist; a violation surfaces as
// ErrUnknownParty.
func (r *MessageRepo) Create(ctx context.Context, from, to, body string) (model.Message, error) {
	sentAt := r.now().UTC()
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO messages (from_username, to_username, body, sent_at) VALUES (?,?,?,?)",
		from, to, body, sentAt)
	if err != nil {
		// 1452: foreign key constraint fails on MySQL
		if strings.Contains(strings.ToLower(err.Error()), "1452") {
			return model.Message{}, ErrUnknownParty
		}
		return model.Message{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Message{}, err
	}
	return model.Message{
		ID:           uint64(id),
		FromUsername: from,
		ToUsername:   to,
		Body:         body,
		SentAt:       sentAt,
	}, nil
}

// GetByID fetches a message joined with both parties' public
// profiles. Returns ErrMessageNotFound when the id does not exist.
func (r *MessageRepo) GetByID(ctx context.Context, id uint64) (model.MessageDetail, error) {
	var (
		d      model.MessageDetail
		readAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT m.id, m.body, m.sent_at, m.read_at,
		        f.username, f.first_name, f.last_name, f.phone,
		        t.username, t.first_name, t.last_name, t.phone
		 FROM messages m
		 JOIN users f ON m.from_username = f.username
		 JOIN users t ON m.to_username = t.username
		 WHERE m.id=? LIMIT 1`, id).Scan(
		&d.ID, &d.Body, &d.SentAt, &readAt,
		&d.FromUser.Username, &d.FromUser.FirstName, &d.FromUser.LastName, &d.FromUser.Phone,
		&d.ToUser.Username, &d.ToUser.FirstName, &d.ToUser.LastName, &d.ToUser.Phone)
	if err == sql.ErrNoRows {
		return model.MessageDetail{}, ErrMessageNotFound
	}
	if err != nil {
		return model.MessageDetail{}, err
	}
	if readAt.Valid {
		t := readAt.Time
		d.ReadAt = &t
	}
	return d, nil
}

// MarkRead sets read_at to the current time if it is still unset and
// returns the stored value. Calling it again is a no-op that returns
// the original timestamp, so read_at never moves once written. The
// guarded UPDATE makes the transition atomic under concurrent calls.
func (r *MessageRepo) MarkRead(ctx context.Context, id uint64) (time.Time, error) {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE messages SET read_at=? WHERE id=? AND read_at IS NULL",
		r.now().UTC(), id)
	if err != nil {
		return time.Time{}, err
	}
	var readAt sql.NullTime
	err = r.DB.QueryRowContext(ctx,
		"SELECT read_at FROM messages WHERE id=? LIMIT 1", id).Scan(&readAt)
	if err == sql.ErrNoRows {
		return time.Time{}, ErrMessageNotFound
	}
	if err != nil {
		return time.Time{}, err
	}
	if !readAt.Valid {
		// unreachable unless the row vanished between statements
		return time.Time{}, ErrMessageNotFound
	}
	return readAt.Time, nil
}
