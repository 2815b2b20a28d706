package artifact

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("artifact not found")

// Source fetches persisted artifact bytes by reference (a path, key, or row name).
type Source interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
	Name() string
}

// Publisher is implemented by sources that can also store artifacts.
type Publisher interface {
	Put(ctx context.Context, ref string, payload []byte) error
}
