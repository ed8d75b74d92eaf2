// Package feed owns posts and comments. Read paths go through the visibility
// resolver on every call; nothing about who can see what is cached here.
package feed

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/modditech/moddi-social/internal/models"
	"github.com/modditech/moddi-social/internal/persistence"
)

var (
	ErrPostNotFound    = fmt.Errorf("post %w", models.ErrNotFound)
	ErrCommentNotFound = fmt.Errorf("comment %w", models.ErrNotFound)
	ErrEmptyContent    = fmt.Errorf("%w: content or image is required", models.ErrInvalidInput)
	ErrContentTooShort = fmt.Errorf("%w: content is too short", models.ErrInvalidInput)
	ErrNotAuthor       = fmt.Errorf("%w: only the author may delete a post", models.ErrUnauthorized)
)

// Visibility is the slice of the resolver the store consults when producing
// filtered views.
type Visibility interface {
	CanViewPost(viewerID int64, p *models.Post) bool
}

// Config tunes the store. MinContentLen of zero disables the length check;
// when set it applies only to text-only posts, never to posts carrying an
// image payload.
type Config struct {
	Resolver      Visibility
	MinContentLen int
	Logger        *logrus.Logger
}

// Store holds posts and comments, newest first.
type Store struct {
	mu       sync.Mutex
	posts    []*models.Post
	comments []*models.Comment
	resolver Visibility
	minLen   int
	log      *logrus.Logger
}

// NewStore returns an empty feed store.
func NewStore(cfg Config) *Store {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Store{
		resolver: cfg.Resolver,
		minLen:   cfg.MinContentLen,
		log:      cfg.Logger,
	}
}

// CreatePost publishes a post at the head of the feed. The image payload is
// opaque: encoding happened before it got here.
func (s *Store) CreatePost(authorID int64, content string, image []byte, privacy models.PostPrivacy) (*models.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" && len(image) == 0 {
		return nil, ErrEmptyContent
	}
	if len(image) == 0 && s.minLen > 0 && len([]rune(content)) < s.minLen {
		return nil, ErrContentTooShort
	}
	if privacy == "" {
		privacy = models.PostPublic
	}

	p := &models.Post{
		ID:        models.NewID(),
		AuthorID:  authorID,
		Content:   content,
		Image:     image,
		Timestamp: time.Now().UTC(),
		LikedBy:   []int64{},
		Privacy:   privacy,
	}

	s.mu.Lock()
	s.posts = append([]*models.Post{p}, s.posts...)
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{"post_id": p.ID, "author": authorID, "privacy": privacy}).Info("post created")
	return p, nil
}

// VisibleFeed returns the posts viewerID may see, most recent first. The
// resolver is consulted on every call so block and friendship changes take
// effect immediately.
func (s *Store) VisibleFeed(viewerID int64) []*models.Post {
	s.mu.Lock()
	posts := append([]*models.Post(nil), s.posts...)
	s.mu.Unlock()

	var out []*models.Post
	for _, p := range posts {
		if s.resolver.CanViewPost(viewerID, p) {
			out = append(out, p)
		}
	}
	return out
}

// PostByID looks up a post.
func (s *Store) PostByID(postID int64) (*models.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.posts {
		if p.ID == postID {
			return p, true
		}
	}
	return nil, false
}

// ToggleLike flips userID's like on a post and returns the resulting count
// and whether the post is now liked. The counter and the set move together.
func (s *Store) ToggleLike(postID, userID int64) (likes int, liked bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.posts {
		if p.ID != postID {
			continue
		}
		p.LikedBy, p.Likes, liked = toggleMembership(p.LikedBy, userID)
		return p.Likes, liked, nil
	}
	return 0, false, ErrPostNotFound
}

// AddComment appends a comment and bumps the parent's counter under one lock:
// either both happen or neither is observable.
func (s *Store) AddComment(postID, authorID int64, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var post *models.Post
	for _, p := range s.posts {
		if p.ID == postID {
			post = p
			break
		}
	}
	if post == nil {
		return nil, ErrPostNotFound
	}

	c := &models.Comment{
		ID:        models.NewID(),
		PostID:    postID,
		AuthorID:  authorID,
		Content:   content,
		Timestamp: time.Now().UTC(),
		LikedBy:   []int64{},
	}
	s.comments = append([]*models.Comment{c}, s.comments...)
	post.Comments++
	return c, nil
}

// ToggleCommentLike flips userID's like on a comment, same contract as
// ToggleLike.
func (s *Store) ToggleCommentLike(commentID, userID int64) (likes int, liked bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.comments {
		if c.ID != commentID {
			continue
		}
		c.LikedBy, c.Likes, liked = toggleMembership(c.LikedBy, userID)
		return c.Likes, liked, nil
	}
	return 0, false, ErrCommentNotFound
}

// CommentsForPost returns the comments on a post, newest first.
func (s *Store) CommentsForPost(postID int64) []*models.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Comment
	for _, c := range s.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	return out
}

// DeletePost removes a post and cascades to its comments. Only the author may
// delete; a refused delete leaves everything queryable.
func (s *Store) DeletePost(postID, requesterID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, p := range s.posts {
		if p.ID == postID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrPostNotFound
	}
	if s.posts[idx].AuthorID != requesterID {
		return ErrNotAuthor
	}

	s.posts = append(s.posts[:idx], s.posts[idx+1:]...)
	kept := s.comments[:0]
	for _, c := range s.comments {
		if c.PostID != postID {
			kept = append(kept, c)
		}
	}
	s.comments = kept

	s.log.WithFields(logrus.Fields{"post_id": postID}).Info("post deleted")
	return nil
}

// PostCountFor returns how many posts userID has authored.
func (s *Store) PostCountFor(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.posts {
		if p.AuthorID == userID {
			n++
		}
	}
	return n
}

// TotalLikesFor sums the likes on userID's posts.
func (s *Store) TotalLikesFor(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.posts {
		if p.AuthorID == userID {
			n += p.Likes
		}
	}
	return n
}

// TotalPosts returns the number of posts across all authors.
func (s *Store) TotalPosts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.posts)
}

// TotalComments returns the number of comments across all posts.
func (s *Store) TotalComments() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.comments)
}

// toggleMembership flips id in the set and returns the new set, its size, and
// whether id is now a member. Keeping count == len(set) in one place is what
// preserves the likes invariant.
func toggleMembership(set []int64, id int64) ([]int64, int, bool) {
	for i, v := range set {
		if v == id {
			set = append(set[:i], set[i+1:]...)
			return set, len(set), false
		}
	}
	set = append(set, id)
	return set, len(set), true
}

// feedState is the persisted shape of the feed.
type feedState struct {
	Posts    []*models.Post    `json:"posts"`
	Comments []*models.Comment `json:"comments"`
}

// Save writes posts and comments through the persistence capability, one key
// each, matching the collections the system has always stored.
func (s *Store) Save(ctx context.Context, ps persistence.Store) error {
	s.mu.Lock()
	st := feedState{
		Posts:    append([]*models.Post(nil), s.posts...),
		Comments: append([]*models.Comment(nil), s.comments...),
	}
	s.mu.Unlock()

	data, err := persistence.MarshalSnapshot(st.Posts)
	if err != nil {
		return err
	}
	if err := ps.Save(ctx, persistence.KeyPosts, data); err != nil {
		return err
	}

	data, err = persistence.MarshalSnapshot(st.Comments)
	if err != nil {
		return err
	}
	return ps.Save(ctx, persistence.KeyComments, data)
}

// Load replaces the feed from the persistence capability. Counters are
// re-derived from the stored sets so a snapshot written by a buggy writer
// cannot break the likes invariant.
func (s *Store) Load(ctx context.Context, ps persistence.Store) error {
	var st feedState

	data, ok, err := ps.Load(ctx, persistence.KeyPosts)
	if err != nil {
		return err
	}
	if ok {
		if err := persistence.UnmarshalSnapshot(data, &st.Posts); err != nil {
			return err
		}
	}

	data, ok, err = ps.Load(ctx, persistence.KeyComments)
	if err != nil {
		return err
	}
	if ok {
		if err := persistence.UnmarshalSnapshot(data, &st.Comments); err != nil {
			return err
		}
	}

	perPost := make(map[int64]int, len(st.Posts))
	for _, c := range st.Comments {
		if c.LikedBy == nil {
			c.LikedBy = []int64{}
		}
		c.Likes = len(c.LikedBy)
		perPost[c.PostID]++
	}
	for _, p := range st.Posts {
		if p.LikedBy == nil {
			p.LikedBy = []int64{}
		}
		p.Likes = len(p.LikedBy)
		p.Comments = perPost[p.ID]
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = st.Posts
	s.comments = st.Comments
	return nil
}
