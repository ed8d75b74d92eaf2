package relationship

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/modditech/moddi-social/internal/models"
	"github.com/modditech/moddi-social/internal/persistence"
)

var (
	ErrDuplicateRequest = fmt.Errorf("%w: friend request already sent", models.ErrConflict)
	ErrSelfRequest      = fmt.Errorf("%w: cannot send a friend request to yourself", models.ErrInvalidInput)
	ErrRequestNotFound  = fmt.Errorf("friend request %w", models.ErrNotFound)
	ErrAlreadyAccepted  = fmt.Errorf("%w: friend request already accepted", models.ErrConflict)
)

// Workflow runs the friend-request lifecycle: pending until accepted,
// acceptance terminal. There is no rejection; a pending request stays pending
// forever unless accepted.
type Workflow struct {
	mu       sync.Mutex
	requests []*models.FriendRequest // append order; listings walk it backwards
	graph    *Graph
}

// NewWorkflow returns a workflow that establishes accepted friendships in
// graph.
func NewWorkflow(graph *Graph) *Workflow {
	return &Workflow{graph: graph}
}

// Send creates a pending request from fromID to toID. At most one pending
// request may exist per ordered (from, to) pair.
func (w *Workflow) Send(fromID, toID int64) (*models.FriendRequest, error) {
	if fromID == toID {
		return nil, ErrSelfRequest
	}
	if err := w.graph.checkUsers(fromID, toID); err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, req := range w.requests {
		if req.FromUserID == fromID && req.ToUserID == toID && req.Status == models.RequestPending {
			return nil, ErrDuplicateRequest
		}
	}

	req := &models.FriendRequest{
		ID:         models.NewID(),
		FromUserID: fromID,
		ToUserID:   toID,
		Status:     models.RequestPending,
		Timestamp:  time.Now().UTC(),
	}
	w.requests = append(w.requests, req)
	return req, nil
}

// Accept marks the request accepted and establishes the symmetric friendship
// edge. Accepting an already-accepted request fails and never touches the
// graph, so duplicate edges cannot appear.
func (w *Workflow) Accept(requestID int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var req *models.FriendRequest
	for _, r := range w.requests {
		if r.ID == requestID {
			req = r
			break
		}
	}
	if req == nil {
		return ErrRequestNotFound
	}
	if req.Status == models.RequestAccepted {
		return ErrAlreadyAccepted
	}

	req.Status = models.RequestAccepted
	w.graph.addFriendEdge(req.FromUserID, req.ToUserID)
	return nil
}

// ListPending returns the pending requests addressed to userID, newest first.
func (w *Workflow) ListPending(userID int64) []*models.FriendRequest {
	w.mu.Lock()
	defer w.mu.Unlock()

	var out []*models.FriendRequest
	for i := len(w.requests) - 1; i >= 0; i-- {
		req := w.requests[i]
		if req.ToUserID == userID && req.Status == models.RequestPending {
			out = append(out, req)
		}
	}
	return out
}

// Save writes the request log through the persistence capability.
func (w *Workflow) Save(ctx context.Context, ps persistence.Store) error {
	w.mu.Lock()
	requests := append([]*models.FriendRequest(nil), w.requests...)
	w.mu.Unlock()

	data, err := persistence.MarshalSnapshot(requests)
	if err != nil {
		return err
	}
	return ps.Save(ctx, persistence.KeyFriendRequests, data)
}

// Load replaces the request log from the persistence capability.
func (w *Workflow) Load(ctx context.Context, ps persistence.Store) error {
	data, ok, err := ps.Load(ctx, persistence.KeyFriendRequests)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	var requests []*models.FriendRequest
	if err := persistence.UnmarshalSnapshot(data, &requests); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.requests = requests
	return nil
}
