package postsapi

import (
	"crypto/rand"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v3"
	"github.com/oklog/ulid"
)

// NewUUID returns a new UUID Version 4.
// It is used for event message ids.
func NewUUID() string {
	return uuid.New().String()
}

// NewShortUUID returns a new short UUID.
// It is used to tell Pub/Sub instances apart in logs.
func NewShortUUID() string {
	return shortuuid.New()
}

// NewULID returns a new ULID.
// Request ids are ULIDs, so they sort by arrival time.
func NewULID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
