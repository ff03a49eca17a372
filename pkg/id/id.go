package id

import (
	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/segmentio/ksuid"
)

// Slug alphabet excludes lookalike characters so slugs can be read aloud
// or typed from a shared screen.
const (
	slugAlphabet = "23456789abcdefghjkmnpqrstuvwxyz"
	slugLength   = 10
)

// New returns a UUIDv4 primary identifier.
func New() string {
	return uuid.New().String()
}

// NewSlug returns a short shareable public identifier.
func NewSlug() (string, error) {
	return gonanoid.Generate(slugAlphabet, slugLength)
}

// NewMessageID returns a time-sortable identifier for chat messages.
func NewMessageID() string {
	return ksuid.New().String()
}

// IsUUID reports whether s parses as a UUID. Used to distinguish primary
// ids from slugs in dual-key lookups.
func IsUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
