// Package cache holds per-user product/order snapshots between requests.
package cache

import (
	"context"
	"sync"
	"time"

	"stockpulse/internal/models"
)

// SnapshotCache is a read-through store for one snapshot per user.
// Concurrent writers for the same user are last-writer-wins.
type SnapshotCache interface {
	Get(ctx context.Context, userID string) (*models.Snapshot, bool, error)
	Set(ctx context.Context, userID string, snap *models.Snapshot) error
	Invalidate(ctx context.Context, userID string) error
	Name() string
}

type entry struct {
	snap    *models.Snapshot
	expires time.Time
}

// Memory is a process-local SnapshotCache with a fixed TTL.
type Memory struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry
}

func NewMemory(ttl time.Duration) *Memory {
	return NewMemoryWithClock(ttl, time.Now)
}

func NewMemoryWithClock(ttl time.Duration, now func() time.Time) *Memory {
	return &Memory{ttl: ttl, now: now, entries: make(map[string]entry)}
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Get(_ context.Context, userID string) (*models.Snapshot, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[userID]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(e.expires) {
		m.mu.Lock()
		if cur, ok := m.entries[userID]; ok && cur.expires.Equal(e.expires) {
			delete(m.entries, userID)
		}
		m.mu.Unlock()
		return nil, false, nil
	}
	return e.snap, true, nil
}

func (m *Memory) Set(_ context.Context, userID string, snap *models.Snapshot) error {
	m.mu.Lock()
	m.entries[userID] = entry{snap: snap, expires: m.now().Add(m.ttl)}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Invalidate(_ context.Context, userID string) error {
	m.mu.Lock()
	delete(m.entries, userID)
	m.mu.Unlock()
	return nil
}
