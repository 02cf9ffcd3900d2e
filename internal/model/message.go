package model

import "time"

// Message models a row in the `messages` table. A message is written
// once by its sender and mutated exactly once afterwards, when the
// recipient marks it read. ReadAt is nil until that happens and never
// goes back to nil.
//
// Fields:
//  ID           – auto-increment primary key.
//  FromUsername – sender, references users.username.
//  ToUsername   – recipient, references users.username.
//  Body         – message text.
//  SentAt       – set once at creation.
//  ReadAt       – nil until the recipient marks the message read.
type Message struct {
	ID           uint64     // messages.id
	FromUsername string     // messages.from_username
	ToUsername   string     // messages.to_username
	Body         string     // messages.body
	SentAt       time.Time  // messages.sent_at
	ReadAt       *time.Time // messages.read_at (nullable)
}

// MessageDetail is a message joined with both parties' public
// profiles, as returned by the message detail lookup.
type MessageDetail struct {
	ID       uint64
	Body     string
	SentAt   time.Time
	ReadAt   *time.Time
	FromUser Profile
	ToUser   Profile
}

// UserMessage is one entry of a per-user message listing: the message
// joined with the public profile of the counterpart (the recipient
// when listing sent messages, the sender when listing received ones).
type UserMessage struct {
	ID          uint64
	Body        string
	SentAt      time.Time
	ReadAt      *time.Time
	Counterpart Profile
}
