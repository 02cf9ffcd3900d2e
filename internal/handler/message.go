package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/messagely/messaging-api/internal/model"
	"github.com/messagely/messaging-api/internal/queue"
	"github.com/messagely/messaging-api/internal/repository"
	queue_publisher "github.com/messagely/messaging-api/internal/service"
)

// MessageHandler exposes the message exchange. Every route requires a
// valid access token; on top of that, Get and MarkRead enforce the
// access policy against the resolved message before returning data or
// touching the store.
type MessageHandler struct {
	Messages MessageStore

	// publish sends the message.sent event. Swappable so tests run
	// without a broker; a failed publish never fails the request.
	publish func(ctx context.Context, ev queue.MessageSentEvent) error
}

func NewMessageHandler(m MessageStore) *MessageHandler {
	if m == nil {
		panic("nil store passed to NewMessageHandler")
	}
	return &MessageHandler{Messages: m, publish: queue_publisher.PublishMessageSent}
}

type createMessageReq struct {
	ToUsername string `json:"to_username"`
	Body       string `json:"body"`
}

type messageDetailResp struct {
	ID       uint64        `json:"id"`
	Body     string        `json:"body"`
	SentAt   time.Time     `json:"sent_at"`
	ReadAt   *time.Time    `json:"read_at"`
	FromUser model.Profile `json:"from_user"`
	ToUser   model.Profile `json:"to_user"`
}

// Get handles GET /v1/messages/:id. The message is fetched first and
// the party check runs against the resolved record, so an outsider
// learns nothing beyond the 403.
func (h *MessageHandler) Get(c echo.Context) error {
	username, err := currentUsername(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid message id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m, err := h.Messages.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "message not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := authorizeView(m, username); errors.Is(err, repository.ErrForbidden) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not a party to this message"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": messageDetailResp{
		ID: m.ID, Body: m.Body, SentAt: m.SentAt, ReadAt: m.ReadAt,
		FromUser: m.FromUser, ToUser: m.ToUser,
	}})
}

// Create handles POST /v1/messages. The sender is always the
// authenticated user; a recipient that does not exist surfaces as a
// 400 from the store's referential integrity check.
func (h *MessageHandler) Create(c echo.Context) error {
	username, err := currentUsername(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createMessageReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ToUsername == "" || req.Body == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "to_username/body required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m, err := h.Messages.Create(ctx, username, req.ToUsername, req.Body)
	if err != nil {
		if errors.Is(err, repository.ErrUnknownParty) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "recipient does not exist"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create message failed"})
	}

	if h.publish != nil {
		ev := queue.MessageSentEvent{
			MessageID:    m.ID,
			FromUsername: m.FromUsername,
			ToUsername:   m.ToUsername,
			SentAt:       m.SentAt.Format(time.RFC3339),
		}
		go func() {
			pctx, pcancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer pcancel()
			if err := h.publish(pctx, ev); err != nil {
				log.Printf("message.sent publish failed for id=%d: %v", m.ID, err)
			}
		}()
	}

	return c.JSON(http.StatusCreated, echo.Map{"message": echo.Map{
		"id":            m.ID,
		"from_username": m.FromUsername,
		"to_username":   m.ToUsername,
		"body":          m.Body,
		"sent_at":       m.SentAt,
	}})
}

// MarkRead handles POST /v1/messages/:id/read. The recipient check
// runs against the resolved message, before the read transition is
// committed; the sender and any third party get a 403 and the row is
// left untouched.
func (h *MessageHandler) MarkRead(c echo.Context) error {
	username, err := currentUsername(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid message id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m, err := h.Messages.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "message not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := authorizeMarkRead(m, username); errors.Is(err, repository.ErrForbidden) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only the recipient can mark a message read"})
	}

	readAt, err := h.Messages.MarkRead(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "message not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "mark read failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": echo.Map{
		"id":      id,
		"read_at": readAt,
	}})
}

// WithPublisher overrides the event publisher. Intended for tests.
func (h *MessageHandler) WithPublisher(fn func(ctx context.Context, ev queue.MessageSentEvent) error) *MessageHandler {
	h.publish = fn
	return h
}
