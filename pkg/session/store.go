package session

import (
	"context"
	"errors"
)

// ErrNotSaved is returned by Load when nothing was ever saved. A saved empty
// session loads without error.
var ErrNotSaved = errors.New("session: nothing saved")

// Store persists session state across process restarts.
//
// Only the client's top-level operations call a Store, and only after the
// corresponding wire send succeeded. Save errors are logged by the caller and
// never fail the operation; the in-memory Session stays authoritative.
type Store interface {
	Load(ctx context.Context) (*Session, error)
	Save(ctx context.Context, st State) error
}
