package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/messagely/messaging-api/internal/model"
	"github.com/messagely/messaging-api/internal/repository"
)

func policyMessage(from, to string) model.MessageDetail {
	return model.MessageDetail{
		ID:       1,
		FromUser: model.Profile{Username: from},
		ToUser:   model.Profile{Username: to},
	}
}

func TestAuthorizeView(t *testing.T) {
	m := policyMessage("alice", "bob")

	assert.NoError(t, authorizeView(m, "alice"), "sender can view")
	assert.NoError(t, authorizeView(m, "bob"), "recipient can view")
	assert.ErrorIs(t, authorizeView(m, "carol"), repository.ErrForbidden, "outsider cannot view")
	assert.ErrorIs(t, authorizeView(m, ""), repository.ErrForbidden, "empty identity cannot view")
}

func TestAuthorizeMarkReadIsNarrowerThanView(t *testing.T) {
	m := policyMessage("alice", "bob")

	assert.NoError(t, authorizeMarkRead(m, "bob"), "recipient can mark read")
	assert.ErrorIs(t, authorizeMarkRead(m, "alice"), repository.ErrForbidden, "sender can view but never mark read")
	assert.ErrorIs(t, authorizeMarkRead(m, "carol"), repository.ErrForbidden)

	// everyone who can mark read can also view
	for _, who := range []string{"alice", "bob", "carol"} {
		if authorizeMarkRead(m, who) == nil {
			assert.NoError(t, authorizeView(m, who))
		}
	}
}
