package data

import "github.com/pkg/errors"

// Error kinds surfaced to callers. Stores never retry or compensate; an
// error simply reports what the single failing operation saw. Match with
// errors.Is.
var (
	// ErrNotFound means the referenced user/chat/message/streak id does
	// not resolve to an existing record.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey means a unique constraint (user email or username)
	// was violated on insert.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrAlreadyMember means the user is already a participant of the chat.
	ErrAlreadyMember = errors.New("user already in chat")

	// ErrExpired means the streak's time window or active flag has lapsed.
	ErrExpired = errors.New("streak has expired")

	// ErrSaveNotAllowed means the streak's settings forbid saving.
	ErrSaveNotAllowed = errors.New("saving is not allowed for this streak")
)
