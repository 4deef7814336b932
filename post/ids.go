package post

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

const (
	IDStrategyMax      = "max"
	IDStrategySequence = "sequence"
)

// IDAssigner picks ids for newly created posts.
//
// Repository calls both methods with its write lock held,
// so implementations don't need their own locking.
type IDAssigner interface {
	// Init is called once, with the posts the repository starts with.
	Init(seed []Post)

	// NextID returns the id of a post about to be appended to posts.
	NextID(posts []Post) ID
}

// MaxIDAssigner assigns one more than the highest id present, or FirstID when there are no posts.
//
// Deleting the post with the highest id makes its id available again.
type MaxIDAssigner struct{}

func (MaxIDAssigner) Init([]Post) {}

func (MaxIDAssigner) NextID(posts []Post) ID {
	return nextAfter(posts)
}

// SequenceIDAssigner is a counter starting right after the highest seed id.
// It never hands out the same id twice.
type SequenceIDAssigner struct {
	next ID
}

func (s *SequenceIDAssigner) Init(seed []Post) {
	s.next = nextAfter(seed)
}

func (s *SequenceIDAssigner) NextID([]Post) ID {
	id := s.next
	s.next++

	return id
}

func nextAfter(posts []Post) ID {
	if len(posts) == 0 {
		return FirstID
	}

	return lo.Max(lo.Map(posts, func(p Post, _ int) ID {
		return p.ID
	})) + 1
}

// ParseIDStrategy returns a fresh IDAssigner for the strategy name: "max" or "sequence".
func ParseIDStrategy(name string) (IDAssigner, error) {
	switch name {
	case IDStrategyMax:
		return MaxIDAssigner{}, nil
	case IDStrategySequence:
		return &SequenceIDAssigner{}, nil
	default:
		return nil, errors.Wrapf(ErrUnknownIDStrategy, "%q", name)
	}
}
