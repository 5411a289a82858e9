package rag_service

import "context"

// IndexStore persists a VectorIndex at a single well-known location. Save
// replaces whatever was stored before, atomically: a failed Save must leave
// the previously stored index readable. Load returns ErrIndexNotFound when
// no prior Save has happened.
type IndexStore interface {
	Save(ctx context.Context, index *VectorIndex) error
	Load(ctx context.Context) (*VectorIndex, error)
}
