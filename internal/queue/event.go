// Package queue defines message payloads exchanged over the message broker.
package queue

// MessageSentEvent is published when a message is successfully
// created. It carries enough for downstream consumers to log or
// notify without querying the primary database. The body is left out
// on purpose: consumers are not parties to the conversation.
type MessageSentEvent struct {
	MessageID    uint64 `json:"message_id"`
	FromUsername string `json:"from_username"`
	ToUsername   string `json:"to_username"`
	SentAt       string `json:"sent_at"`
}
