package handler // handler defines http handlers

import (
	"context"
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/messagely/messaging-api/internal/model"
)

// The handlers consume the repositories through small interfaces so
// tests can substitute in-memory fakes for the MySQL-backed
// implementations.

// UserStore is the user directory as the handlers see it.
type UserStore interface {
	Create(ctx context.Context, username, password, firstName, lastName, phone string, cost int) (model.User, error)
	Authenticate(ctx context.Context, username, password string) (bool, error)
	UpdateLoginTimestamp(ctx context.Context, username string) error
	All(ctx context.Context) ([]model.Profile, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
	MessagesFrom(ctx context.Context, username string) ([]model.UserMessage, error)
	MessagesTo(ctx context.Context, username string) ([]model.UserMessage, error)
}

// MessageStore is the message exchange as the handlers see it.
type MessageStore interface {
	Create(ctx context.Context, from, to, body string) (model.Message, error)
	GetByID(ctx context.Context, id uint64) (model.MessageDetail, error)
	MarkRead(ctx context.Context, id uint64) (time.Time, error)
}

// TokenStore persists refresh tokens.
type TokenStore interface {
	StoreRefresh(ctx context.Context, username, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (string, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, username string) error
}

// currentUsername extracts the authenticated username placed in the
// context by the JWT middleware.
func currentUsername(c echo.Context) (string, error) {
	if v, ok := c.Get("username").(string); ok && v != "" {
		return v, nil
	}
	return "", errors.New("no username in context")
}
