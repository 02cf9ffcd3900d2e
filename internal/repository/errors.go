// Package repository defines error types that are reused across
// multiple repositories. These sentinel values allow higher layers
// such as handlers to distinguish between different failure
// scenarios. For example, ErrUsernameExists signals that a
// registration collided with an existing account, while
// ErrUnknownParty means a message referenced a sender or recipient
// that does not exist.
package repository

import "errors"

// ErrUsernameExists is returned when registering a username that is
// already taken. Handlers should translate this into an HTTP 409
// response.
var ErrUsernameExists = errors.New("username already exists")

// ErrUserNotFound is returned when a username does not resolve to a
// user record. Handlers should translate this into an HTTP 404
// response.
var ErrUserNotFound = errors.New("user not found")

// ErrMessageNotFound is returned when a message id does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrMessageNotFound = errors.New("message not found")

// ErrUnknownParty is returned when creating a message whose sender or
// recipient is not a registered user. The store's referential
// integrity check surfaces as this error; handlers should translate
// it into an HTTP 400 response.
var ErrUnknownParty = errors.New("sender or recipient does not exist")

// ErrForbidden is returned when the caller is not a party to the
// message it is trying to access. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")
