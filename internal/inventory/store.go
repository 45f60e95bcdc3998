// Package inventory holds the in-memory copy of the stock list that pages
// are rendered from.
package inventory

import (
	"slices"
	"sync"
	"time"

	"github.com/erazemk/zaloga/internal/model"
)

// Store is the local inventory: an ordered item list plus master data.
// Replacements are wholesale; whichever write lands last wins.
type Store struct {
	mu        sync.RWMutex
	items     []model.Item
	master    model.MasterData
	version   uint64
	listeners []func(uint64)
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// OnChange registers fn to be called with the new version after every change.
// Listeners run synchronously outside the store lock.
func (s *Store) OnChange(fn func(version uint64)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Version returns a counter that increases on every change.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Items returns a copy of all items, archived ones included, in store order.
func (s *Store) Items() []model.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Item(nil), s.items...)
}

// Master returns a copy of the master data.
func (s *Store) Master() model.MasterData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.master.Clone()
}

// Find returns the item with the given id.
func (s *Store) Find(id string) (model.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.items {
		if it.ID == id {
			return it, true
		}
	}
	return model.Item{}, false
}

// ReplaceItems swaps in a full item list.
func (s *Store) ReplaceItems(items []model.Item) {
	s.mu.Lock()
	s.items = append([]model.Item(nil), items...)
	s.changed()
}

// ReplaceMaster swaps in new master data.
func (s *Store) ReplaceMaster(m model.MasterData) {
	s.mu.Lock()
	s.master = m.Clone()
	s.changed()
}

// Add applies an add request locally and returns the created or merged item.
func (s *Store) Add(a model.AddItem, id string, now time.Time) model.Item {
	s.mu.Lock()
	var item model.Item
	s.items, item = ApplyAdd(s.items, a, id, now)
	s.changed()
	return item
}

// Consume applies a consumption locally.
func (s *Store) Consume(id string, qty int, now time.Time) (model.Item, error) {
	s.mu.Lock()
	item, err := ApplyConsume(s.items, id, qty, now)
	if err != nil {
		s.mu.Unlock()
		return model.Item{}, err
	}
	s.changed()
	return item, nil
}

// Archive archives an item locally.
func (s *Store) Archive(id string, now time.Time) (model.Item, error) {
	s.mu.Lock()
	item, err := ApplyArchive(s.items, id, now)
	if err != nil {
		s.mu.Unlock()
		return model.Item{}, err
	}
	s.changed()
	return item, nil
}

// changed bumps the version, releases the write lock and notifies listeners.
// The caller must hold s.mu.
func (s *Store) changed() {
	s.version++
	version := s.version
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(version)
	}
}
