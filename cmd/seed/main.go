// cmd/seed/main.go
//
// Seeds a demo social dataset through the public store operations and writes
// it out through a persistence adapter. Backend selection:
//
//	SOCIAL_BACKEND = file (default) | redis | postgres
//	SOCIAL_DATA_DIR = snapshot directory for the file backend (default ./data)
package main

import (
	"context"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/modditech/moddi-social/internal/auth"
	"github.com/modditech/moddi-social/internal/feed"
	"github.com/modditech/moddi-social/internal/identity"
	"github.com/modditech/moddi-social/internal/models"
	"github.com/modditech/moddi-social/internal/persistence"
	"github.com/modditech/moddi-social/internal/relationship"
	"github.com/modditech/moddi-social/internal/visibility"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	ctx := context.Background()
	store := openBackend(ctx, logger)

	users := identity.NewStore(logger)
	graph := relationship.NewGraph(users, logger)
	requests := relationship.NewWorkflow(graph)
	resolver := visibility.NewResolver(users, graph)
	posts := feed.NewStore(feed.Config{Resolver: resolver, MinContentLen: 5, Logger: logger})

	admin := register(logger, users, "Admin", "User", "admin@modditech.com", models.RoleAdmin)
	bio := "Moddi Tech Design Administrator"
	if _, err := users.UpdateUser(admin.ID, identity.Update{Bio: &bio}); err != nil {
		logger.Fatalf("update admin: %v", err)
	}

	alice := register(logger, users, "Alice", "Nguyen", "alice@modditech.com", models.RoleDesigner)
	bob := register(logger, users, "Bob", "Marsh", "bob@modditech.com", models.RoleClient)
	carol := register(logger, users, "Carol", "Diaz", "carol@modditech.com", models.RolePartner)

	// Alice and Bob become friends through the request workflow.
	req, err := requests.Send(alice.ID, bob.ID)
	if err != nil {
		logger.Fatalf("send friend request: %v", err)
	}
	if err := requests.Accept(req.ID); err != nil {
		logger.Fatalf("accept friend request: %v", err)
	}

	// Carol blocks Bob; the cascade removes any friendship between them.
	if err := graph.Block(carol.ID, bob.ID); err != nil {
		logger.Fatalf("block: %v", err)
	}

	p1, err := posts.CreatePost(alice.ID, "Welcome to the Moddi community feed!", nil, models.PostPublic)
	if err != nil {
		logger.Fatalf("create post: %v", err)
	}
	p2, err := posts.CreatePost(alice.ID, "Design review notes for friends only.", nil, models.PostFriends)
	if err != nil {
		logger.Fatalf("create post: %v", err)
	}
	if _, err := posts.CreatePost(carol.ID, "Private partner memo.", nil, models.PostPrivate); err != nil {
		logger.Fatalf("create post: %v", err)
	}

	if _, _, err := posts.ToggleLike(p1.ID, bob.ID); err != nil {
		logger.Fatalf("like: %v", err)
	}
	if _, err := posts.AddComment(p2.ID, bob.ID, "Looking forward to the review."); err != nil {
		logger.Fatalf("comment: %v", err)
	}

	saveAll(ctx, logger, store, users, graph, requests, posts)

	logger.WithFields(logrus.Fields{
		"users":    users.Count(),
		"posts":    posts.TotalPosts(),
		"comments": posts.TotalComments(),
	}).Info("seed complete")
}

func openBackend(ctx context.Context, logger *logrus.Logger) persistence.Store {
	switch backend := os.Getenv("SOCIAL_BACKEND"); backend {
	case "redis":
		store, err := persistence.ConnectRedis()
		if err != nil {
			logger.Fatalf("connect redis: %v", err)
		}
		return store
	case "postgres":
		store, err := persistence.ConnectPostgres(ctx)
		if err != nil {
			logger.Fatalf("connect postgres: %v", err)
		}
		return store
	case "", "file":
		dir := os.Getenv("SOCIAL_DATA_DIR")
		if dir == "" {
			dir = "./data"
		}
		return persistence.NewFileStore(dir)
	default:
		logger.Fatalf("unknown SOCIAL_BACKEND %q", backend)
		return nil
	}
}

func register(logger *logrus.Logger, users *identity.Store, first, last, email string, role models.Role) *models.User {
	hash, err := auth.HashPassword("demo-password", auth.DefaultHashParams)
	if err != nil {
		logger.Fatalf("hash password: %v", err)
	}
	u, _, err := users.Register(identity.RegisterInput{
		FirstName: first,
		LastName:  last,
		Email:     email,
		Password:  hash,
		Role:      role,
	})
	if err != nil {
		logger.Fatalf("register %s: %v", email, err)
	}
	return u
}

func saveAll(ctx context.Context, logger *logrus.Logger, store persistence.Store,
	users *identity.Store, graph *relationship.Graph, requests *relationship.Workflow, posts *feed.Store,
) {
	if err := users.Save(ctx, store); err != nil {
		logger.Fatalf("save users: %v", err)
	}
	if err := graph.Save(ctx, store); err != nil {
		logger.Fatalf("save relationships: %v", err)
	}
	if err := requests.Save(ctx, store); err != nil {
		logger.Fatalf("save friend requests: %v", err)
	}
	if err := posts.Save(ctx, store); err != nil {
		logger.Fatalf("save feed: %v", err)
	}
}
