// Package syncer keeps the local inventory in step with whichever backend the
// session was started with.
package syncer

import (
	"context"
	"errors"
	"fmt"

	"github.com/erazemk/zaloga/internal/inventory"
	"github.com/erazemk/zaloga/internal/model"
)

// Mode names the kind of backend a session runs against.
type Mode string

// Backend modes.
const (
	ModeConnected Mode = "connected"
	ModeMock      Mode = "mock"
)

// Failure kinds. A failed action wraps ErrActionFailed and one of
// ErrUnreachable or ErrRejected; a failed refresh wraps ErrRefreshFailed.
var (
	ErrActionFailed  = errors.New("action failed")
	ErrRefreshFailed = errors.New("refresh failed")
	ErrUnreachable   = errors.New("backend unreachable")
	ErrRejected      = errors.New("backend rejected request")
)

// Backend is where writes go and where a full refresh reads from.
type Backend interface {
	Mode() Mode

	// Refresh replaces the store contents with the backend's current state.
	Refresh(ctx context.Context, s *inventory.Store) error

	// Submit performs a write and brings the store up to date afterwards.
	// Nothing in the store changes when the write fails.
	Submit(ctx context.Context, r model.Request, s *inventory.Store) error
}

// resultError converts an unsuccessful result into an error.
func resultError(action string, res model.Result) error {
	kind := ErrRejected
	if res.Transport {
		kind = ErrUnreachable
	}
	if res.Error == "" {
		return fmt.Errorf("%s: %w", action, kind)
	}
	return fmt.Errorf("%s: %w: %s", action, kind, res.Error)
}
