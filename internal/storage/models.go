package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Tag is a user-authored canned response looked up by name. Names are
// unique case-insensitively.
type Tag struct {
	Name      string
	Content   string
	AuthorID  string // Discord user ID of the author
	CreatedAt time.Time
}

// ClosedTicket records one resolved support thread.
type ClosedTicket struct {
	ThreadID string
	ClosedBy string // Discord user ID
	ClosedAt time.Time
}
