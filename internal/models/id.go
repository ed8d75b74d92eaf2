package models

import (
	"sync"
	"time"
)

var (
	idMu   sync.Mutex
	lastID int64
)

// NewID returns a millisecond-epoch identifier, bumped by one whenever two
// calls land in the same millisecond. Every entity id in stored data has this
// shape, so snapshots written by older installations stay readable.
func NewID() int64 {
	idMu.Lock()
	defer idMu.Unlock()
	id := time.Now().UnixMilli()
	if id <= lastID {
		id = lastID + 1
	}
	lastID = id
	return id
}
