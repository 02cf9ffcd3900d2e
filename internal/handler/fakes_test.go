package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/messagely/messaging-api/internal/model"
	"github.com/messagely/messaging-api/internal/repository"
	"github.com/messagely/messaging-api/internal/utils"
)

// memDB is the shared state behind the in-memory fakes. The wrapper
// types below implement UserStore, MessageStore and TokenStore on top
// of it, so handler tests run without MySQL. The now func pins the
// clock.
type memDB struct {
	now func() time.Time

	users    map[string]model.User
	messages map[uint64]*model.Message
	nextID   uint64
	tokens   map[string]tokenRow

	// call records for assertions
	markReadCalls   int
	loginStampCalls []string
	revokedHashes   []string
}

type tokenRow struct {
	username string
	exp      time.Time
	revoked  bool
}

func newMemDB() *memDB {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &memDB{
		now:      func() time.Time { return base },
		users:    map[string]model.User{},
		messages: map[uint64]*model.Message{},
		nextID:   1,
		tokens:   map[string]tokenRow{},
	}
}

// ----- UserStore fake -----

type memUserStore struct{ db *memDB }

func (s *memUserStore) Create(_ context.Context, username, password, firstName, lastName, phone string, cost int) (model.User, error) {
	if _, ok := s.db.users[username]; ok {
		return model.User{}, repository.ErrUsernameExists
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return model.User{}, err
	}
	u := model.User{
		Username:     username,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		Phone:        phone,
		JoinAt:       s.db.now(),
		LastLoginAt:  s.db.now(),
	}
	s.db.users[username] = u
	return u, nil
}

func (s *memUserStore) Authenticate(_ context.Context, username, password string) (bool, error) {
	u, ok := s.db.users[username]
	if !ok {
		return false, nil
	}
	return utils.VerifyPassword(u.PasswordHash, password), nil
}

func (s *memUserStore) UpdateLoginTimestamp(_ context.Context, username string) error {
	u, ok := s.db.users[username]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.LastLoginAt = s.db.now()
	s.db.users[username] = u
	s.db.loginStampCalls = append(s.db.loginStampCalls, username)
	return nil
}

func (s *memUserStore) All(_ context.Context) ([]model.Profile, error) {
	var out []model.Profile
	for _, u := range s.db.users {
		out = append(out, u.Profile())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *memUserStore) GetByUsername(_ context.Context, username string) (model.User, error) {
	u, ok := s.db.users[username]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (s *memUserStore) MessagesFrom(_ context.Context, username string) ([]model.UserMessage, error) {
	return s.db.listMessages(username, true), nil
}

func (s *memUserStore) MessagesTo(_ context.Context, username string) ([]model.UserMessage, error) {
	return s.db.listMessages(username, false), nil
}

func (db *memDB) listMessages(username string, sent bool) []model.UserMessage {
	var out []model.UserMessage
	for _, m := range db.messages {
		var counterpart string
		switch {
		case sent && m.FromUsername == username:
			counterpart = m.ToUsername
		case !sent && m.ToUsername == username:
			counterpart = m.FromUsername
		default:
			continue
		}
		out = append(out, model.UserMessage{
			ID:          m.ID,
			Body:        m.Body,
			SentAt:      m.SentAt,
			ReadAt:      m.ReadAt,
			Counterpart: db.users[counterpart].Profile(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ----- MessageStore fake -----

type memMessageStore struct{ db *memDB }

func (s *memMessageStore) Create(_ context.Context, from, to, body string) (model.Message, error) {
	if _, ok := s.db.users[from]; !ok {
		return model.Message{}, repository.ErrUnknownParty
	}
	if _, ok := s.db.users[to]; !ok {
		return model.Message{}, repository.ErrUnknownParty
	}
	m := &model.Message{
		ID:           s.db.nextID,
		FromUsername: from,
		ToUsername:   to,
		Body:         body,
		SentAt:       s.db.now(),
	}
	s.db.messages[m.ID] = m
	s.db.nextID++
	return *m, nil
}

func (s *memMessageStore) GetByID(_ context.Context, id uint64) (model.MessageDetail, error) {
	m, ok := s.db.messages[id]
	if !ok {
		return model.MessageDetail{}, repository.ErrMessageNotFound
	}
	return model.MessageDetail{
		ID:       m.ID,
		Body:     m.Body,
		SentAt:   m.SentAt,
		ReadAt:   m.ReadAt,
		FromUser: s.db.users[m.FromUsername].Profile(),
		ToUser:   s.db.users[m.ToUsername].Profile(),
	}, nil
}

func (s *memMessageStore) MarkRead(_ context.Context, id uint64) (time.Time, error) {
	s.db.markReadCalls++
	m, ok := s.db.messages[id]
	if !ok {
		return time.Time{}, repository.ErrMessageNotFound
	}
	if m.ReadAt == nil {
		t := s.db.now()
		m.ReadAt = &t
	}
	return *m.ReadAt, nil
}

// ----- TokenStore fake -----

type memTokenStore struct{ db *memDB }

func (s *memTokenStore) StoreRefresh(_ context.Context, username, tokenHash string, exp time.Time) error {
	s.db.tokens[tokenHash] = tokenRow{username: username, exp: exp}
	return nil
}

func (s *memTokenStore) ValidateRefresh(_ context.Context, tokenHash string) (string, error) {
	row, ok := s.db.tokens[tokenHash]
	if !ok || row.revoked || time.Now().UTC().After(row.exp) {
		return "", sql.ErrNoRows
	}
	return row.username, nil
}

func (s *memTokenStore) RevokeByHash(_ context.Context, tokenHash string) error {
	if row, ok := s.db.tokens[tokenHash]; ok {
		row.revoked = true
		s.db.tokens[tokenHash] = row
	}
	s.db.revokedHashes = append(s.db.revokedHashes, tokenHash)
	return nil
}

func (s *memTokenStore) RevokeAllForUser(_ context.Context, username string) error {
	for hash, row := range s.db.tokens {
		if row.username == username {
			row.revoked = true
			s.db.tokens[hash] = row
		}
	}
	return nil
}

// ----- helpers -----

// newTestContext builds an Echo context carrying an optional JSON
// body and, when username is non-empty, the identity the JWT
// middleware would have injected.
func newTestContext(t *testing.T, method, target string, body any, username string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	if username != "" {
		c.Set("username", username)
	}
	return c, rec
}

// decodeBody unmarshals the recorded JSON response into a map tree.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}
