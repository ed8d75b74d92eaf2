// Package persistence defines the snapshot capability the domain stores save
// through: load bytes by key, save bytes by key. Adapters exist for the local
// filesystem, Redis, and Postgres; the stores never know which one they got.
package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/modditech/moddi-social/internal/models"
)

// Snapshot keys, one per owned collection. The names predate this codebase
// and must not change: existing installations have data under them.
const (
	KeyUsers          = "moddiUsers"
	KeyFriends        = "moddiFriends"
	KeyBlockedUsers   = "moddiBlockedUsers"
	KeyFriendRequests = "moddiFriendRequests"
	KeyPosts          = "moddiNews"
	KeyComments       = "moddiComments"
)

// Store is the persistence capability. Load reports ok=false when the key has
// never been saved; that is not an error. Failures are reportable, never
// fatal, and are not retried here.
type Store interface {
	Load(ctx context.Context, key string) (data []byte, ok bool, err error)
	Save(ctx context.Context, key string, data []byte) error
}

// envelope wraps every stored payload with a revision stamp so concurrent
// writers can be detected after the fact.
type envelope struct {
	Revision uuid.UUID       `json:"revision"`
	SavedAt  time.Time       `json:"saved_at"`
	Data     json.RawMessage `json:"data"`
}

// MarshalSnapshot encodes a payload into a stamped snapshot.
func MarshalSnapshot(payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w: %w", models.ErrPersistence, err)
	}
	env := envelope{
		Revision: uuid.New(),
		SavedAt:  time.Now().UTC(),
		Data:     data,
	}
	out, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot envelope: %w: %w", models.ErrPersistence, err)
	}
	return out, nil
}

// UnmarshalSnapshot decodes a stamped snapshot into payload. Corrupt stored
// JSON surfaces as a persistence error, never a panic.
func UnmarshalSnapshot(data []byte, payload any) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("corrupt snapshot envelope: %w: %w", models.ErrPersistence, err)
	}
	if err := json.Unmarshal(env.Data, payload); err != nil {
		return fmt.Errorf("corrupt snapshot payload: %w: %w", models.ErrPersistence, err)
	}
	return nil
}
