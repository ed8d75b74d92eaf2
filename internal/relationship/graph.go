// Package relationship owns the friendship and block state between users.
// Friendship is a symmetric relation stored as unordered id pairs; blocks are
// directional, per blocker. Blocking cascades to unfriending.
package relationship

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/modditech/moddi-social/internal/models"
	"github.com/modditech/moddi-social/internal/persistence"
)

var (
	ErrAlreadyBlocked = fmt.Errorf("%w: user is already blocked", models.ErrConflict)
	ErrNotBlocked     = fmt.Errorf("%w: user is not blocked", models.ErrConflict)
	ErrAlreadyFriends = fmt.Errorf("%w: users are already friends", models.ErrConflict)
	ErrNotFriends     = fmt.Errorf("%w: users are not friends", models.ErrConflict)
	ErrUnknownUser    = fmt.Errorf("user %w", models.ErrNotFound)
)

// UserDirectory is the slice of the identity store the graph needs for
// existence checks.
type UserDirectory interface {
	Exists(id int64) bool
}

// Graph is the relationship state for one installation.
type Graph struct {
	mu      sync.Mutex
	friends map[models.Friendship]struct{}
	blocked map[int64]map[int64]struct{} // blocker id -> blocked set
	users   UserDirectory
	log     *logrus.Logger
}

// NewGraph returns an empty graph backed by the given directory. logger may
// be nil.
func NewGraph(users UserDirectory, logger *logrus.Logger) *Graph {
	if logger == nil {
		logger = logrus.New()
	}
	return &Graph{
		friends: make(map[models.Friendship]struct{}),
		blocked: make(map[int64]map[int64]struct{}),
		users:   users,
		log:     logger,
	}
}

func (g *Graph) checkUsers(ids ...int64) error {
	for _, id := range ids {
		if !g.users.Exists(id) {
			return fmt.Errorf("%w: id %d", ErrUnknownUser, id)
		}
	}
	return nil
}

// Block adds targetID to viewerID's block set and removes any friendship
// between the two. The unfriend step never fails: absence of a friendship is
// fine.
func (g *Graph) Block(viewerID, targetID int64) error {
	if err := g.checkUsers(viewerID, targetID); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	set := g.blocked[viewerID]
	if _, dup := set[targetID]; dup {
		return ErrAlreadyBlocked
	}
	if set == nil {
		set = make(map[int64]struct{})
		g.blocked[viewerID] = set
	}
	set[targetID] = struct{}{}

	delete(g.friends, models.NewFriendship(viewerID, targetID))

	g.log.WithFields(logrus.Fields{"viewer": viewerID, "target": targetID}).Info("user blocked")
	return nil
}

// Unblock removes targetID from viewerID's block set.
func (g *Graph) Unblock(viewerID, targetID int64) error {
	if err := g.checkUsers(viewerID, targetID); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	set := g.blocked[viewerID]
	if _, ok := set[targetID]; !ok {
		return ErrNotBlocked
	}
	delete(set, targetID)
	return nil
}

// AddFriend creates the symmetric edge directly. Friend creation normally
// goes through the request workflow; this mutator exists for symmetry with
// RemoveFriend and for tests.
func (g *Graph) AddFriend(viewerID, targetID int64) error {
	if err := g.checkUsers(viewerID, targetID); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	edge := models.NewFriendship(viewerID, targetID)
	if _, dup := g.friends[edge]; dup {
		return ErrAlreadyFriends
	}
	g.friends[edge] = struct{}{}
	return nil
}

// RemoveFriend deletes the edge between the two users.
func (g *Graph) RemoveFriend(viewerID, targetID int64) error {
	if err := g.checkUsers(viewerID, targetID); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	edge := models.NewFriendship(viewerID, targetID)
	if _, ok := g.friends[edge]; !ok {
		return ErrNotFriends
	}
	delete(g.friends, edge)
	return nil
}

// addFriendEdge inserts the edge if absent. Used by the request workflow so
// accepting twice can never duplicate state.
func (g *Graph) addFriendEdge(a, b int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.friends[models.NewFriendship(a, b)] = struct{}{}
}

// IsFriend reports whether the two users share an edge. Symmetric.
func (g *Graph) IsFriend(a, b int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.friends[models.NewFriendship(a, b)]
	return ok
}

// HasBlocked reports whether viewerID has blocked targetID. Directional.
func (g *Graph) HasBlocked(viewerID, targetID int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.blocked[viewerID][targetID]
	return ok
}

// Blocked returns the ids viewerID has blocked, sorted.
func (g *Graph) Blocked(viewerID int64) []int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]int64, 0, len(g.blocked[viewerID]))
	for id := range g.blocked[viewerID] {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Friends returns the ids sharing an edge with userID, sorted.
func (g *Graph) Friends(userID int64) []int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []int64
	for edge := range g.friends {
		switch userID {
		case edge.User1ID:
			out = append(out, edge.User2ID)
		case edge.User2ID:
			out = append(out, edge.User1ID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// graphState is the persisted shape of the graph.
type graphState struct {
	Friendships []models.Friendship `json:"friendships"`
	Blocked     map[int64][]int64   `json:"blocked"`
}

// Save writes friendships and block sets through the persistence capability,
// under their own keys so either collection can be inspected alone.
func (g *Graph) Save(ctx context.Context, ps persistence.Store) error {
	g.mu.Lock()
	friendships := make([]models.Friendship, 0, len(g.friends))
	for edge := range g.friends {
		friendships = append(friendships, edge)
	}
	blocked := make(map[int64][]int64, len(g.blocked))
	for viewer, set := range g.blocked {
		ids := make([]int64, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		blocked[viewer] = ids
	}
	g.mu.Unlock()

	sort.Slice(friendships, func(i, j int) bool {
		if friendships[i].User1ID == friendships[j].User1ID {
			return friendships[i].User2ID < friendships[j].User2ID
		}
		return friendships[i].User1ID < friendships[j].User1ID
	})

	data, err := persistence.MarshalSnapshot(friendships)
	if err != nil {
		return err
	}
	if err := ps.Save(ctx, persistence.KeyFriends, data); err != nil {
		return err
	}

	data, err = persistence.MarshalSnapshot(blocked)
	if err != nil {
		return err
	}
	return ps.Save(ctx, persistence.KeyBlockedUsers, data)
}

// Load replaces the graph state from the persistence capability. Missing
// snapshots leave the corresponding collection empty.
func (g *Graph) Load(ctx context.Context, ps persistence.Store) error {
	var st graphState

	data, ok, err := ps.Load(ctx, persistence.KeyFriends)
	if err != nil {
		return err
	}
	if ok {
		if err := persistence.UnmarshalSnapshot(data, &st.Friendships); err != nil {
			return err
		}
	}

	data, ok, err = ps.Load(ctx, persistence.KeyBlockedUsers)
	if err != nil {
		return err
	}
	if ok {
		if err := persistence.UnmarshalSnapshot(data, &st.Blocked); err != nil {
			return err
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.friends = make(map[models.Friendship]struct{}, len(st.Friendships))
	for _, edge := range st.Friendships {
		// Normalize on the way in: stored pairs may come from a writer that
		// did not order them.
		g.friends[models.NewFriendship(edge.User1ID, edge.User2ID)] = struct{}{}
	}
	g.blocked = make(map[int64]map[int64]struct{}, len(st.Blocked))
	for viewer, ids := range st.Blocked {
		set := make(map[int64]struct{}, len(ids))
		for _, id := range ids {
			set[id] = struct{}{}
		}
		g.blocked[viewer] = set
	}
	return nil
}
