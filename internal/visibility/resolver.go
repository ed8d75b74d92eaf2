// Package visibility decides, for a (viewer, target) pair, whether content
// may be seen and whether interaction is permitted. The resolver is a pure
// reader: it never mutates state and never caches a decision, so writes to
// the relationship graph are reflected on the next call.
package visibility

import "github.com/modditech/moddi-social/internal/models"

// Directory is the slice of the identity store the resolver reads.
type Directory interface {
	UserByID(id int64) (*models.User, bool)
}

// Relationships is the slice of the relationship graph the resolver reads.
type Relationships interface {
	IsFriend(a, b int64) bool
	HasBlocked(viewerID, targetID int64) bool
}

// Resolver answers visibility and interaction questions. A viewer id of zero
// means "not logged in" and is denied everything.
type Resolver struct {
	users Directory
	rel   Relationships
}

// NewResolver wires a resolver over the identity and relationship state.
func NewResolver(users Directory, rel Relationships) *Resolver {
	return &Resolver{users: users, rel: rel}
}

// blockedEitherWay implements mutual block opacity: once either party has
// blocked the other, neither can see the other.
func (r *Resolver) blockedEitherWay(a, b int64) bool {
	return r.rel.HasBlocked(a, b) || r.rel.HasBlocked(b, a)
}

// CanViewProfile reports whether viewerID may see targetID's profile.
func (r *Resolver) CanViewProfile(viewerID, targetID int64) bool {
	if viewerID == 0 {
		return false
	}
	if viewerID == targetID {
		return true
	}
	if r.blockedEitherWay(viewerID, targetID) {
		return false
	}

	target, ok := r.users.UserByID(targetID)
	if !ok {
		return false
	}

	switch target.Privacy {
	case models.ProfilePrivate:
		return r.rel.IsFriend(viewerID, targetID)
	case models.ProfileFriendsExcept:
		return r.rel.IsFriend(viewerID, targetID) && !target.Restricts(viewerID)
	default:
		// Unset or public. Unknown values land here too, which keeps old
		// records visible rather than silently hiding them.
		return true
	}
}

// CanViewPost reports whether viewerID may see the post.
func (r *Resolver) CanViewPost(viewerID int64, p *models.Post) bool {
	if viewerID == 0 || p == nil {
		return false
	}
	if viewerID != p.AuthorID && r.blockedEitherWay(viewerID, p.AuthorID) {
		return false
	}

	switch p.Privacy {
	case models.PostFriends:
		return viewerID == p.AuthorID || r.rel.IsFriend(viewerID, p.AuthorID)
	case models.PostPrivate:
		return viewerID == p.AuthorID
	default:
		// public, plus any legacy value: fail open.
		return true
	}
}

// CanInteract gates like, comment, and friend actions toward targetID.
// Interaction is never more permissive than viewing.
func (r *Resolver) CanInteract(viewerID, targetID int64) bool {
	return r.CanViewProfile(viewerID, targetID)
}
