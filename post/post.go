// Package post holds the only domain entity of the service, the blog Post,
// and the in-memory Repository that owns the collection of posts.
package post

import (
	"strconv"

	"github.com/pkg/errors"
)

// ID identifies a post. It is unique within the live collection.
type ID int64

// FirstID is assigned to the first post created in an empty collection.
const FirstID ID = 0

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseID parses a decimal post id, as found in request paths.
// Only the canonical form is accepted: "+1", "01" and "-0" are invalid.
func ParseID(s string) (ID, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || ID(id).String() != s {
		return 0, errors.Wrapf(ErrInvalidID, "%q", s)
	}

	return ID(id), nil
}

// Post is a blog post.
type Post struct {
	ID      ID     `json:"_id"`
	Author  string `json:"author"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Seed returns the example posts the service starts with.
func Seed() []Post {
	return []Post{
		{
			ID:      0,
			Author:  "Mr. T.",
			Title:   "I pity the fool!",
			Content: "Mr. T has the greatest hair in the world. You can't deny it, it's been proven by science, fool!",
		},
		{
			ID:      1,
			Author:  "Gandolf",
			Title:   "You shall not pass",
			Content: "'Good Morning!' said Bilbo, and he meant it. The sun was shining, and the grass was very green. But Gandalf looked at him from under long bushy eyebrows that stuck out further than the brim of his shady hat.",
		},
		{
			ID:      2,
			Author:  "Nietzsche",
			Title:   "The abysss",
			Content: "Whoever fights monsters should see to it that in the process he does not become a monster. And if you gaze long enough into an abyss, the abyss will gaze back into you.",
		},
	}
}
