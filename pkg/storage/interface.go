package storage

import "context"

// MappingStore is the persistence contract for mapping records.
// Every operation is atomic with respect to concurrent callers; all
// coordination (uniqueness, counter increments) lives behind it.
type MappingStore interface {
	// Insert creates a new active mapping with visits=0 and a
	// store-assigned id and creation time. Returns ErrCodeTaken if the
	// code exists in any state: of two concurrent inserts with the same
	// code exactly one succeeds.
	Insert(ctx context.Context, code, originalURL string) (*Mapping, error)

	// FindActive returns the mapping only if it is active.
	FindActive(ctx context.Context, code string) (*Mapping, error)

	// IncrementVisits atomically adds 1 to the visit counter of an
	// active mapping and returns the updated record. Concurrent calls
	// must not lose increments. Inactive or missing codes yield
	// ErrNotFound.
	IncrementVisits(ctx context.Context, code string) (*Mapping, error)

	// Deactivate sets is_active=false and returns the latest persisted
	// record. Deactivating an already-inactive mapping succeeds.
	Deactivate(ctx context.Context, code string) (*Mapping, error)

	// ListAll returns every mapping regardless of state, in no
	// particular order.
	ListAll(ctx context.Context) ([]Mapping, error)
}
