package syncer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/erazemk/zaloga/internal/inventory"
	"github.com/erazemk/zaloga/internal/model"
)

// Controller owns the local store and routes refreshes and writes through
// the backend chosen at startup. Overlapping calls are not serialized
// against each other; the last one to touch the store wins.
type Controller struct {
	store   *inventory.Store
	backend Backend
}

// New creates a controller.
func New(store *inventory.Store, backend Backend) *Controller {
	return &Controller{store: store, backend: backend}
}

// Select picks the backend for a session: the remote API when one is
// configured, the mock otherwise.
func Select(api API, mock *Mock) Backend {
	if api == nil {
		slog.Warn("no API URL configured, running in mock mode; data will be lost on restart")
		return mock
	}
	return NewRemote(api)
}

// Store returns the local store.
func (c *Controller) Store() *inventory.Store { return c.store }

// Mode returns the backend mode.
func (c *Controller) Mode() Mode { return c.backend.Mode() }

// Refresh performs a full refresh from the backend. Once started it runs to
// completion even if ctx is canceled.
func (c *Controller) Refresh(ctx context.Context) error {
	if err := c.backend.Refresh(context.WithoutCancel(ctx), c.store); err != nil {
		slog.Warn("refresh failed", "mode", c.Mode(), "error", err)
		return err
	}
	return nil
}

// RefreshInBackground starts a full refresh and returns immediately. The
// result is delivered on the returned channel, which is buffered.
func (c *Controller) RefreshInBackground(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- c.Refresh(ctx)
	}()
	return done
}

// Add validates and submits an add request.
func (c *Controller) Add(ctx context.Context, a model.AddItem) error {
	req, err := model.NewAddItem(a)
	if err != nil {
		return err
	}
	return c.submit(ctx, req)
}

// Consume validates and submits a consumption for an item in the local list.
func (c *Controller) Consume(ctx context.Context, id string, qty int, note string) error {
	req, err := model.NewConsumeItem(model.ConsumeItem{ItemID: id, Qty: qty, Note: note})
	if err != nil {
		return err
	}
	if err := c.checkActionable(id); err != nil {
		return err
	}
	return c.submit(ctx, req)
}

// Archive submits an archive request for an item in the local list.
func (c *Controller) Archive(ctx context.Context, id string) error {
	req, err := model.NewArchiveItem(id)
	if err != nil {
		return err
	}
	if err := c.checkActionable(id); err != nil {
		return err
	}
	return c.submit(ctx, req)
}

// checkActionable rejects items that are unknown locally or archived.
func (c *Controller) checkActionable(id string) error {
	item, ok := c.store.Find(id)
	if !ok {
		return fmt.Errorf("%w: %s", inventory.ErrNotFound, id)
	}
	if item.Archived() {
		return fmt.Errorf("%w: %s", inventory.ErrArchived, id)
	}
	return nil
}

// submit hands req to the backend. An issued write cannot be aborted, so the
// caller's cancellation is dropped while request values are kept.
func (c *Controller) submit(ctx context.Context, req model.Request) error {
	if err := c.backend.Submit(context.WithoutCancel(ctx), req, c.store); err != nil {
		slog.Warn("action failed", "action", req.Action(), "mode", c.Mode(), "error", err)
		return err
	}
	slog.Info("action applied", "action", req.Action(), "mode", c.Mode())
	return nil
}
