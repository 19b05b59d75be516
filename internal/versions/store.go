package versions

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// Store is the persistence boundary for version metadata. Implementations
// perform compare-and-set writes: a mutation whose expected state no longer
// matches the stored state fails with ErrConflict.
type Store interface {
	// List returns the slot's versions ordered by descending number.
	List(ctx context.Context, slot Slot) ([]Version, error)

	// Find returns the version with id or ErrNotFound.
	Find(ctx context.Context, id uuid.UUID) (*Version, error)

	// MaxNumber returns the highest version number in the slot, 0 when empty.
	MaxNumber(ctx context.Context, slot Slot) (int, error)

	// Create supersedes the slot's active version, if any, and inserts a new
	// active pending version numbered ExpectedMax+1. Returns ErrConflict if
	// the slot's max no longer equals ExpectedMax.
	Create(ctx context.Context, cmd CreateCommand) (*Change, error)

	// Delete soft-deletes the version if its retention still equals expected.
	Delete(ctx context.Context, id uuid.UUID, expected Retention) (*Version, error)

	// Restore activates the version if its retention still equals expected,
	// superseding whichever version in the slot is active.
	Restore(ctx context.Context, id uuid.UUID, expected Retention) (*Change, error)

	// SetVerification moves the version's verification status if it still
	// equals cmd.Expected.
	SetVerification(ctx context.Context, cmd VerificationCommand) (*Version, error)
}

// Blobs stores version content.
type Blobs interface {
	Store(ctx context.Context, key string, r io.Reader, size int64) error
	Delete(ctx context.Context, key string) error
}

// CreateCommand carries a validated upload into the store.
type CreateCommand struct {
	ID          uuid.UUID
	Slot        Slot
	ExpectedMax int
	File        FileMeta
	Extension   string
	Uploader    string
	Notes       string
	StorageKey  string
}

// VerificationCommand moves a version along the verification axis.
type VerificationCommand struct {
	ID       uuid.UUID
	Expected Verification
	Status   Verification
	Reason   string
}

// Change is the result of a transition that may supersede another version.
type Change struct {
	Version    Version  `json:"version"`
	Superseded *Version `json:"superseded,omitempty"`
}
