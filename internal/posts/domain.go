// Package posts manages organization posts and their votes.
package posts

import (
	"crypto/rand"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

var (
	// ErrNotFound indicates the post does not exist.
	ErrNotFound = errors.New("posts: not found")
	// ErrAlreadyVoted indicates the caller already voted on the post.
	ErrAlreadyVoted = errors.New("posts: already voted")
	// ErrVoteNotFound indicates the caller has no vote on the post.
	ErrVoteNotFound = errors.New("posts: vote not found")
)

// VoteType is the closed set of vote kinds.
type VoteType string

const (
	VoteUp   VoteType = "up"
	VoteDown VoteType = "down"
)

// Valid reports whether v is a known vote kind.
func (v VoteType) Valid() bool { return v == VoteUp || v == VoteDown }

// Post is a piece of content published inside an organization. Post ids
// are ULIDs, so lexicographic id order is creation order.
type Post struct {
	ID             ulid.ULID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Caption        string    `json:"caption"`
	IsPinned       bool      `json:"is_pinned"`
	CreatorID      uuid.UUID `json:"creator_id"`
	UpVotes        int32     `json:"up_votes"`
	DownVotes      int32     `json:"down_votes"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// PostKey is the sort key of the posts connection. Forward iteration walks
// newest-first, so the key compares descending.
type PostKey struct {
	ID string `json:"id"`
}

// NewID mints a ULID for the current time.
func NewID() ulid.ULID {
	return ulid.MustNew(ulid.Now(), rand.Reader)
}

// CreatePostInput carries the fields for creating a post.
type CreatePostInput struct {
	OrganizationID uuid.UUID `validate:"required"`
	Caption        string    `validate:"required,max=4096"`
}
