package models

import "time"

// PostPrivacy controls who may view a post. Values outside the known set are
// treated as public by the resolver; that fail-open default matches the
// deployed behavior and is deliberate.
type PostPrivacy string

const (
	PostPublic  PostPrivacy = "public"
	PostFriends PostPrivacy = "friends"
	PostPrivate PostPrivacy = "private"
)

// Post is a feed entry. Content may be empty when an image payload is
// present. Likes must always equal len(LikedBy); the feed store maintains the
// two in lock-step.
type Post struct {
	ID        int64       `json:"id"`
	AuthorID  int64       `json:"author_id"`
	Content   string      `json:"content"`
	Image     []byte      `json:"image,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Likes     int         `json:"likes"`
	LikedBy   []int64     `json:"liked_by"`
	Privacy   PostPrivacy `json:"privacy"`
	Comments  int         `json:"comments"`
}

// LikedByUser reports whether the given user currently likes the post.
func (p *Post) LikedByUser(userID int64) bool {
	return containsID(p.LikedBy, userID)
}

// Comment is attached to a post and carries the same likes invariant.
// Comments are removed in cascade when their post is deleted.
type Comment struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"post_id"`
	AuthorID  int64     `json:"author_id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Likes     int       `json:"likes"`
	LikedBy   []int64   `json:"liked_by"`
}

// LikedByUser reports whether the given user currently likes the comment.
func (c *Comment) LikedByUser(userID int64) bool {
	return containsID(c.LikedBy, userID)
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
