package persistence_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modditech/moddi-social/internal/feed"
	"github.com/modditech/moddi-social/internal/identity"
	"github.com/modditech/moddi-social/internal/models"
	"github.com/modditech/moddi-social/internal/persistence"
	"github.com/modditech/moddi-social/internal/relationship"
	"github.com/modditech/moddi-social/internal/visibility"
)

type world struct {
	users    *identity.Store
	graph    *relationship.Graph
	requests *relationship.Workflow
	resolver *visibility.Resolver
	feed     *feed.Store
}

func newWorld() *world {
	users := identity.NewStore(nil)
	graph := relationship.NewGraph(users, nil)
	resolver := visibility.NewResolver(users, graph)
	return &world{
		users:    users,
		graph:    graph,
		requests: relationship.NewWorkflow(graph),
		resolver: resolver,
		feed:     feed.NewStore(feed.Config{Resolver: resolver}),
	}
}

func (w *world) saveAll(t *testing.T, ctx context.Context, ps persistence.Store) {
	t.Helper()
	require.NoError(t, w.users.Save(ctx, ps))
	require.NoError(t, w.graph.Save(ctx, ps))
	require.NoError(t, w.requests.Save(ctx, ps))
	require.NoError(t, w.feed.Save(ctx, ps))
}

func (w *world) loadAll(t *testing.T, ctx context.Context, ps persistence.Store) {
	t.Helper()
	require.NoError(t, w.users.Load(ctx, ps))
	require.NoError(t, w.graph.Load(ctx, ps))
	require.NoError(t, w.requests.Load(ctx, ps))
	require.NoError(t, w.feed.Load(ctx, ps))
}

// TestSnapshotReproducesVisibility persists a populated installation, reloads
// it into fresh stores, and checks that every (viewer, target) visibility
// decision comes out identical.
func TestSnapshotReproducesVisibility(t *testing.T) {
	ctx := context.Background()
	store := persistence.NewFileStore(t.TempDir())

	w := newWorld()

	var ids []int64
	for i := 0; i < 4; i++ {
		u, _, err := w.users.Register(identity.RegisterInput{
			FirstName: fmt.Sprintf("User%d", i),
			Email:     fmt.Sprintf("user%d@example.com", i),
			Password:  "hash",
			Role:      models.RoleClient,
		})
		require.NoError(t, err)
		ids = append(ids, u.ID)
	}

	privacy := models.ProfilePrivate
	_, err := w.users.UpdateUser(ids[1], identity.Update{Privacy: &privacy})
	require.NoError(t, err)

	except := models.ProfileFriendsExcept
	restricted := []int64{ids[3]}
	_, err = w.users.UpdateUser(ids[2], identity.Update{Privacy: &except, RestrictedUsers: &restricted})
	require.NoError(t, err)

	req, err := w.requests.Send(ids[0], ids[1])
	require.NoError(t, err)
	require.NoError(t, w.requests.Accept(req.ID))
	require.NoError(t, w.graph.AddFriend(ids[2], ids[3]))
	require.NoError(t, w.graph.Block(ids[0], ids[3]))

	_, err = w.feed.CreatePost(ids[0], "public post", nil, models.PostPublic)
	require.NoError(t, err)
	friendsPost, err := w.feed.CreatePost(ids[1], "friends post", nil, models.PostFriends)
	require.NoError(t, err)
	_, err = w.feed.CreatePost(ids[2], "private post", nil, models.PostPrivate)
	require.NoError(t, err)
	_, _, err = w.feed.ToggleLike(friendsPost.ID, ids[0])
	require.NoError(t, err)

	w.saveAll(t, ctx, store)

	restored := newWorld()
	restored.loadAll(t, ctx, store)

	for _, viewer := range append([]int64{0}, ids...) {
		for _, target := range ids {
			want := w.resolver.CanViewProfile(viewer, target)
			got := restored.resolver.CanViewProfile(viewer, target)
			assert.Equalf(t, want, got, "CanViewProfile(%d,%d) changed across snapshot", viewer, target)
		}

		wantFeed := w.feed.VisibleFeed(viewer)
		gotFeed := restored.feed.VisibleFeed(viewer)
		require.Equalf(t, len(wantFeed), len(gotFeed), "feed length for viewer %d changed across snapshot", viewer)
		for i := range wantFeed {
			assert.Equal(t, wantFeed[i].ID, gotFeed[i].ID)
			assert.Equal(t, wantFeed[i].Likes, gotFeed[i].Likes)
			assert.Equal(t, wantFeed[i].Comments, gotFeed[i].Comments)
		}
	}

	// Pending requests survive too.
	morePending, err := w.requests.Send(ids[2], ids[1])
	require.NoError(t, err)
	require.NoError(t, w.requests.Save(ctx, store))
	require.NoError(t, restored.requests.Load(ctx, store))

	pending := restored.requests.ListPending(ids[1])
	require.Len(t, pending, 1)
	assert.Equal(t, morePending.ID, pending[0].ID)
}
