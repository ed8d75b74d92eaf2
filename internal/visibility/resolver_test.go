package visibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modditech/moddi-social/internal/identity"
	"github.com/modditech/moddi-social/internal/models"
	"github.com/modditech/moddi-social/internal/relationship"
)

// fixture wires a real identity store and relationship graph so decisions are
// made against the same state the stores would hold in production.
type fixture struct {
	users    *identity.Store
	graph    *relationship.Graph
	resolver *Resolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users := identity.NewStore(nil)
	graph := relationship.NewGraph(users, nil)
	return &fixture{
		users:    users,
		graph:    graph,
		resolver: NewResolver(users, graph),
	}
}

func (f *fixture) addUser(t *testing.T, email string, privacy models.ProfilePrivacy, restricted ...int64) int64 {
	t.Helper()
	u, _, err := f.users.Register(identity.RegisterInput{
		FirstName: "Test",
		Email:     email,
		Password:  "x",
		Role:      models.RoleClient,
	})
	require.NoError(t, err)
	if privacy != "" || len(restricted) > 0 {
		_, err = f.users.UpdateUser(u.ID, identity.Update{
			Privacy:         &privacy,
			RestrictedUsers: &restricted,
		})
		require.NoError(t, err)
	}
	return u.ID
}

func TestGuestSeesNothing(t *testing.T) {
	f := newFixture(t)
	target := f.addUser(t, "a@example.com", models.ProfilePublic)

	assert.False(t, f.resolver.CanViewProfile(0, target))
	assert.False(t, f.resolver.CanViewPost(0, &models.Post{AuthorID: target, Privacy: models.PostPublic}))
	assert.False(t, f.resolver.CanInteract(0, target))
}

func TestProfilePrivacyLevels(t *testing.T) {
	f := newFixture(t)
	viewer := f.addUser(t, "viewer@example.com", "")

	pub := f.addUser(t, "pub@example.com", models.ProfilePublic)
	unset := f.addUser(t, "unset@example.com", "")
	priv := f.addUser(t, "priv@example.com", models.ProfilePrivate)

	assert.True(t, f.resolver.CanViewProfile(viewer, pub))
	assert.True(t, f.resolver.CanViewProfile(viewer, unset), "no privacy setting defaults to public")
	assert.False(t, f.resolver.CanViewProfile(viewer, priv))

	require.NoError(t, f.graph.AddFriend(viewer, priv))
	assert.True(t, f.resolver.CanViewProfile(viewer, priv), "friends may view private profiles")
}

func TestFriendsExcept(t *testing.T) {
	f := newFixture(t)
	friend := f.addUser(t, "friend@example.com", "")
	restricted := f.addUser(t, "restricted@example.com", "")
	target := f.addUser(t, "target@example.com", models.ProfileFriendsExcept, restricted)

	require.NoError(t, f.graph.AddFriend(friend, target))
	require.NoError(t, f.graph.AddFriend(restricted, target))

	assert.True(t, f.resolver.CanViewProfile(friend, target))
	assert.False(t, f.resolver.CanViewProfile(restricted, target), "restricted friends are excluded")

	stranger := f.addUser(t, "stranger@example.com", "")
	assert.False(t, f.resolver.CanViewProfile(stranger, target), "non-friends are excluded under friends_except")
}

func TestMutualBlockOpacity(t *testing.T) {
	f := newFixture(t)
	a := f.addUser(t, "a@example.com", models.ProfilePublic)
	b := f.addUser(t, "b@example.com", models.ProfilePublic)

	require.NoError(t, f.graph.AddFriend(a, b))
	require.NoError(t, f.graph.Block(a, b))

	assert.False(t, f.resolver.CanViewProfile(a, b))
	assert.False(t, f.resolver.CanViewProfile(b, a), "the blocked party cannot see the blocker either")
	assert.False(t, f.resolver.CanInteract(b, a))
	assert.False(t, f.graph.IsFriend(a, b))
}

func TestOwnerAlwaysSeesOwnProfile(t *testing.T) {
	f := newFixture(t)
	owner := f.addUser(t, "owner@example.com", models.ProfilePrivate)
	assert.True(t, f.resolver.CanViewProfile(owner, owner))
}

func TestCanViewPost(t *testing.T) {
	f := newFixture(t)
	author := f.addUser(t, "author@example.com", "")
	friend := f.addUser(t, "friend@example.com", "")
	stranger := f.addUser(t, "stranger@example.com", "")
	require.NoError(t, f.graph.AddFriend(author, friend))

	tests := []struct {
		name    string
		privacy models.PostPrivacy
		viewer  int64
		want    bool
	}{
		{"public visible to stranger", models.PostPublic, stranger, true},
		{"friends post visible to friend", models.PostFriends, friend, true},
		{"friends post hidden from stranger", models.PostFriends, stranger, false},
		{"friends post visible to author", models.PostFriends, author, true},
		{"private visible to author only", models.PostPrivate, author, true},
		{"private hidden from friend", models.PostPrivate, friend, false},
		{"legacy privacy value fails open", models.PostPrivacy("followers"), stranger, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := &models.Post{ID: 1, AuthorID: author, Privacy: tc.privacy}
			assert.Equal(t, tc.want, f.resolver.CanViewPost(tc.viewer, p))
		})
	}
}

func TestBlockHidesPostsBothWays(t *testing.T) {
	f := newFixture(t)
	author := f.addUser(t, "author@example.com", "")
	blocked := f.addUser(t, "blocked@example.com", "")
	require.NoError(t, f.graph.Block(author, blocked))

	p := &models.Post{ID: 1, AuthorID: author, Privacy: models.PostPublic}
	assert.False(t, f.resolver.CanViewPost(blocked, p))

	theirs := &models.Post{ID: 2, AuthorID: blocked, Privacy: models.PostPublic}
	assert.False(t, f.resolver.CanViewPost(author, theirs))
}
