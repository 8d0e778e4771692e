// Package board holds the latest leaderboard snapshot of every event.
// Snapshots are replaced whole; readers never observe a partial pass.
package board

import (
	"sync"
	"sync/atomic"

	"github.com/okian/judgeboard/internal/domain/model"
)

// Board maps event ids to their current snapshot.
type Board struct {
	mu     sync.RWMutex
	events map[string]*atomic.Pointer[model.Snapshot]
	seq    atomic.Uint64
}

// New creates an empty board.
func New() *Board {
	return &Board{events: make(map[string]*atomic.Pointer[model.Snapshot])}
}

// NextVersion returns a version number larger than any handed out before.
// A refresh pass takes its version before fetching so that a pass started
// later always wins.
func (b *Board) NextVersion() uint64 {
	return b.seq.Add(1)
}

func (b *Board) slot(eventID string) *atomic.Pointer[model.Snapshot] {
	b.mu.RLock()
	p, ok := b.events[eventID]
	b.mu.RUnlock()
	if ok {
		return p
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if p, ok = b.events[eventID]; !ok {
		p = &atomic.Pointer[model.Snapshot]{}
		b.events[eventID] = p
	}
	return p
}

// Swap publishes snap if it is newer than the current snapshot of its event.
// It reports whether snap was published.
func (b *Board) Swap(snap *model.Snapshot) bool {
	if snap == nil {
		return false
	}
	p := b.slot(snap.EventID)
	for {
		cur := p.Load()
		if cur != nil && cur.Version >= snap.Version {
			return false
		}
		if p.CompareAndSwap(cur, snap) {
			return true
		}
	}
}

// Get returns the current snapshot of eventID.
func (b *Board) Get(eventID string) (*model.Snapshot, bool) {
	b.mu.RLock()
	p, ok := b.events[eventID]
	b.mu.RUnlock()
	if !ok {
		return nil, false
	}
	snap := p.Load()
	return snap, snap != nil
}

// Len returns the number of events with a published snapshot.
func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, p := range b.events {
		if p.Load() != nil {
			n++
		}
	}
	return n
}
