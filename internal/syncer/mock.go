package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/zaloga/internal/inventory"
	"github.com/erazemk/zaloga/internal/model"
)

// Mock is the disconnected backend. Writes are applied straight to the
// store, which has to stay consistent on its own since nothing will ever
// overwrite it with authoritative data.
type Mock struct {
	// Delay simulates a network round trip before each write.
	Delay time.Duration
	NewID func() string
	Now   func() time.Time
}

// NewMock creates a mock backend with uuid-based ids.
func NewMock(delay time.Duration) *Mock {
	return &Mock{
		Delay: delay,
		NewID: func() string { return "mock-" + uuid.NewString() },
		Now:   time.Now,
	}
}

// Mode implements Backend.
func (m *Mock) Mode() Mode { return ModeMock }

// Refresh is a no-op: there is nothing to sync from.
func (m *Mock) Refresh(ctx context.Context, s *inventory.Store) error {
	return nil
}

// Submit applies the request to the store after the simulated delay. Like a
// real round trip, the delay is not cut short by cancellation.
func (m *Mock) Submit(ctx context.Context, req model.Request, s *inventory.Store) error {
	time.Sleep(m.Delay)

	var err error
	switch r := req.(type) {
	case model.AddItem:
		s.Add(r, m.NewID(), m.Now())
	case model.ConsumeItem:
		_, err = s.Consume(r.ItemID, r.Qty, m.Now())
	case model.ArchiveItem:
		_, err = s.Archive(r.ItemID, m.Now())
	default:
		err = fmt.Errorf("%w: %s", model.ErrInvalidAction, req.Action())
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w: %w", ErrActionFailed, req.Action(), ErrRejected, err)
	}
	return nil
}
