package handler

import (
	"github.com/messagely/messaging-api/internal/model"
	"github.com/messagely/messaging-api/internal/repository"
)

// Access rules for messages. Both checks run against the resolved
// message record, after it has been fetched and before anything is
// returned or mutated. A denial is repository.ErrForbidden, which
// handlers translate into an HTTP 403.

// authorizeView allows only a party to the message: the sender and
// the recipient may see its detail.
func authorizeView(m model.MessageDetail, username string) error {
	if username == m.FromUser.Username || username == m.ToUser.Username {
		return nil
	}
	return repository.ErrForbidden
}

// authorizeMarkRead allows only the recipient. This is strictly
// narrower than authorizeView: the sender can see the message but
// never flip its read state.
func authorizeMarkRead(m model.MessageDetail, username string) error {
	if username == m.ToUser.Username {
		return nil
	}
	return repository.ErrForbidden
}
