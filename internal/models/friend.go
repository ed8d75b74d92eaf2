package models

import "time"

// Friendship is a single undirected edge between two users. The pair is kept
// in normalized order (User1ID < User2ID) so that (A,B) and (B,A) are the
// same edge.
type Friendship struct {
	User1ID int64 `json:"user1_id"`
	User2ID int64 `json:"user2_id"`
}

// NewFriendship returns the normalized edge for the two ids.
func NewFriendship(a, b int64) Friendship {
	if a > b {
		a, b = b, a
	}
	return Friendship{User1ID: a, User2ID: b}
}

// Involves reports whether the edge touches the given user.
func (f Friendship) Involves(id int64) bool {
	return f.User1ID == id || f.User2ID == id
}

// RequestStatus is the lifecycle state of a friend request. There is no
// rejected state: a pending request stays pending until accepted.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
)

// FriendRequest records one user asking another for friendship. Requests are
// never deleted; acceptance is terminal.
type FriendRequest struct {
	ID         int64         `json:"id"`
	FromUserID int64         `json:"from_user_id"`
	ToUserID   int64         `json:"to_user_id"`
	Status     RequestStatus `json:"status"`
	Timestamp  time.Time     `json:"timestamp"`
}
