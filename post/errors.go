package post

import (
	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned when no post has the requested id.
	ErrNotFound = errors.New("post not found")

	// ErrInvalidID is returned when a post id cannot be parsed.
	ErrInvalidID = errors.New("invalid post id")

	// ErrUnknownIDStrategy is returned by ParseIDStrategy for names it doesn't know.
	ErrUnknownIDStrategy = errors.New("unknown id strategy")
)

func notFound(id ID) error {
	return errors.Wrapf(ErrNotFound, "post %d", id)
}
