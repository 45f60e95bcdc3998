package syncer

import (
	"context"
	"errors"
	"fmt"

	"github.com/erazemk/zaloga/internal/inventory"
	"github.com/erazemk/zaloga/internal/model"
)

// API is the remote endpoint as seen through the HTTP adapter.
type API interface {
	GetMaster(ctx context.Context) model.Result
	GetInventory(ctx context.Context) model.Result
	Post(ctx context.Context, r model.Request) model.Result
}

// Remote is the connected backend. The remote store is authoritative: every
// successful write is followed by a full refresh.
type Remote struct {
	API API
}

// NewRemote creates a connected backend.
func NewRemote(api API) *Remote {
	return &Remote{API: api}
}

// Mode implements Backend.
func (r *Remote) Mode() Mode { return ModeConnected }

// Refresh fetches master data, then inventory. Each successful read replaces
// its collection wholesale; a failure of the second read does not undo the
// first.
func (r *Remote) Refresh(ctx context.Context, s *inventory.Store) error {
	var errs []error

	res := r.API.GetMaster(ctx)
	if res.Success {
		var master model.MasterData
		if err := res.Decode(&master); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w: decoding master data: %v", model.ActionGetMaster, ErrRejected, err))
		} else {
			s.ReplaceMaster(master)
		}
	} else {
		errs = append(errs, resultError(model.ActionGetMaster, res))
	}

	res = r.API.GetInventory(ctx)
	if res.Success {
		var items []model.Item
		if err := res.Decode(&items); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w: decoding inventory: %v", model.ActionGetInventory, ErrRejected, err))
		} else {
			s.ReplaceItems(items)
		}
	} else {
		errs = append(errs, resultError(model.ActionGetInventory, res))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	return nil
}

// Submit posts the request and, on success, refreshes the store.
func (r *Remote) Submit(ctx context.Context, req model.Request, s *inventory.Store) error {
	res := r.API.Post(ctx, req)
	if !res.Success {
		return fmt.Errorf("%w: %w", ErrActionFailed, resultError(req.Action(), res))
	}
	return r.Refresh(ctx, s)
}
