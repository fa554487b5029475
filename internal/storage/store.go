// Package storage provides the save-slot backends. Script and item catalog
// files stay on the filesystem; only the save checkpoint goes through a
// SaveStore, so the backend can be swapped (local file, Redis profile sync).
package storage

import "context"

// SaveStore persists the single save slot as an opaque JSON document.
// Load returns (nil, nil) when no save exists; callers treat missing,
// empty, and unreadable saves identically as "start fresh".
type SaveStore interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Clear(ctx context.Context) error
}
