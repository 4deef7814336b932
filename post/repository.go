package post

import (
	"context"
	"sync"

	"github.com/samber/lo"
)

// Store is everything the HTTP API needs from a collection of posts.
type Store interface {
	// Search returns posts whose author, title or content match text, see CompilePattern.
	Search(ctx context.Context, text string) ([]Post, error)
	// List returns all posts in collection order.
	List(ctx context.Context) ([]Post, error)
	// Create assigns a new id to p, appends it and returns the stored post.
	// The id of p is ignored.
	Create(ctx context.Context, p Post) (Post, error)
	// Get returns the post with the id, or ErrNotFound.
	Get(ctx context.Context, id ID) (Post, error)
	// Update replaces the post with the id, keeping its position, or returns ErrNotFound.
	// The stored post always keeps the id, whatever the id of p is.
	Update(ctx context.Context, id ID, p Post) (Post, error)
	// Delete removes every post with the id and returns the removed post, or ErrNotFound.
	Delete(ctx context.Context, id ID) (Post, error)
}

// Repository is an in-memory Store. State lives only as long as the process.
//
// Repository is safe for concurrent use.
type Repository struct {
	lock  sync.RWMutex
	posts []Post
	ids   IDAssigner
}

// NewRepository creates a Repository holding seed, in order.
// A nil ids uses a SequenceIDAssigner.
func NewRepository(ids IDAssigner, seed ...Post) *Repository {
	if ids == nil {
		ids = &SequenceIDAssigner{}
	}

	posts := append([]Post(nil), seed...)
	ids.Init(posts)

	return &Repository{
		posts: posts,
		ids:   ids,
	}
}

func (r *Repository) Search(ctx context.Context, text string) ([]Post, error) {
	pattern := CompilePattern(text)

	r.lock.RLock()
	defer r.lock.RUnlock()

	return lo.Filter(r.posts, func(p Post, _ int) bool {
		return pattern.Matches(p)
	}), nil
}

func (r *Repository) List(ctx context.Context) ([]Post, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	return append(make([]Post, 0, len(r.posts)), r.posts...), nil
}

func (r *Repository) Create(ctx context.Context, p Post) (Post, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	p.ID = r.ids.NextID(r.posts)
	r.posts = append(r.posts, p)

	return p, nil
}

func (r *Repository) Get(ctx context.Context, id ID) (Post, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	p, ok := lo.Find(r.posts, hasID(id))
	if !ok {
		return Post{}, notFound(id)
	}

	return p, nil
}

func (r *Repository) Update(ctx context.Context, id ID, p Post) (Post, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	_, index, ok := lo.FindIndexOf(r.posts, hasID(id))
	if !ok {
		return Post{}, notFound(id)
	}

	p.ID = id
	r.posts[index] = p

	return p, nil
}

func (r *Repository) Delete(ctx context.Context, id ID) (Post, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	removed, ok := lo.Find(r.posts, hasID(id))
	if !ok {
		return Post{}, notFound(id)
	}

	r.posts = lo.Reject(r.posts, func(p Post, _ int) bool {
		return p.ID == id
	})

	return removed, nil
}

// Len returns the number of stored posts.
func (r *Repository) Len() int {
	r.lock.RLock()
	defer r.lock.RUnlock()

	return len(r.posts)
}

func hasID(id ID) func(Post) bool {
	return func(p Post) bool {
		return p.ID == id
	}
}
