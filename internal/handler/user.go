package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/messagely/messaging-api/internal/model"
	"github.com/messagely/messaging-api/internal/repository"
)

// UserHandler exposes the user directory: listings, profiles and the
// per-user message views. All routes sit behind JWT authentication;
// the message listings additionally require that the authenticated
// user is the one being asked about.
type UserHandler struct {
	Users UserStore
}

func NewUserHandler(u UserStore) *UserHandler {
	if u == nil {
		panic("nil store passed to NewUserHandler")
	}
	return &UserHandler{Users: u}
}

type profileResp struct {
	Username    string    `json:"username"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Phone       string    `json:"phone"`
	JoinAt      time.Time `json:"join_at"`
	LastLoginAt time.Time `json:"last_login_at"`
}

// sentMessage is one element of the messages-from listing; the
// embedded profile is the recipient.
type sentMessage struct {
	ID     uint64        `json:"id"`
	Body   string        `json:"body"`
	SentAt time.Time     `json:"sent_at"`
	ReadAt *time.Time    `json:"read_at"`
	ToUser model.Profile `json:"to_user"`
}

// receivedMessage is one element of the messages-to listing; the
// embedded profile is the sender.
type receivedMessage struct {
	ID       uint64        `json:"id"`
	Body     string        `json:"body"`
	SentAt   time.Time     `json:"sent_at"`
	ReadAt   *time.Time    `json:"read_at"`
	FromUser model.Profile `json:"from_user"`
}

// List handles GET /v1/users: basic info on every user, no filtering
// and no pagination.
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.All(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if users == nil {
		users = []model.Profile{}
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}

// Get handles GET /v1/users/:username: the full profile, minus the
// credential hash.
func (h *UserHandler) Get(c echo.Context) error {
	username := c.Param("username")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": profileResp{
		Username:    u.Username,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Phone:       u.Phone,
		JoinAt:      u.JoinAt,
		LastLoginAt: u.LastLoginAt,
	}})
}

// MessagesFrom handles GET /v1/users/:username/messages/from: every
// message the user sent, with the recipient's public profile. Only
// the user may list their own messages.
func (h *UserHandler) MessagesFrom(c echo.Context) error {
	current, err := currentUsername(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	username := c.Param("username")
	if username != current {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "cannot list another user's messages"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	msgs, err := h.Users.MessagesFrom(ctx, username)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]sentMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, sentMessage{
			ID: m.ID, Body: m.Body, SentAt: m.SentAt, ReadAt: m.ReadAt, ToUser: m.Counterpart,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"messages": out})
}

// MessagesTo handles GET /v1/users/:username/messages/to: every
// message the user received, with the sender's public profile. Only
// the user may list their own messages.
func (h *UserHandler) MessagesTo(c echo.Context) error {
	current, err := currentUsername(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	username := c.Param("username")
	if username != current {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "cannot list another user's messages"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	msgs, err := h.Users.MessagesTo(ctx, username)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]receivedMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, receivedMessage{
			ID: m.ID, Body: m.Body, SentAt: m.SentAt, ReadAt: m.ReadAt, FromUser: m.Counterpart,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"messages": out})
}
