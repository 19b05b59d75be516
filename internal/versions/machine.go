package versions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// System is the version state machine for document slots.
type System interface {
	RecordUpload(ctx context.Context, cmd UploadCommand) (*Version, error)
	Delete(ctx context.Context, id uuid.UUID, actor string) (*Version, error)
	Restore(ctx context.Context, id uuid.UUID, actor string) (*Change, error)
	ListHistory(ctx context.Context, slot Slot) ([]Version, error)
	Find(ctx context.Context, id uuid.UUID) (*Version, error)
}

// Machine enforces the retention lifecycle of each slot on top of a Store:
// at most one active version per slot, numbers assigned in creation order,
// and verification status left untouched by retention transitions.
type Machine struct {
	store   Store
	blobs   Blobs
	events  EventSink
	policy  Policy
	timeout time.Duration
	locks   *slotLocks
	logger  *slog.Logger
	now     func() time.Time
}

// Option customizes a Machine.
type Option func(*Machine)

// WithClock overrides the time source used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// WithEvents sets the sink that receives upload, delete, and restore events.
func WithEvents(sink EventSink) Option {
	return func(m *Machine) { m.events = sink }
}

// NewMachine creates a state machine. timeout bounds each store call; zero
// disables it.
func NewMachine(store Store, blobs Blobs, policy Policy, timeout time.Duration, logger *slog.Logger, opts ...Option) *Machine {
	m := &Machine{
		store:   store,
		blobs:   blobs,
		events:  NopSink,
		policy:  policy,
		timeout: timeout,
		locks:   newSlotLocks(),
		logger:  logger.With("system", "versions"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Policy returns the upload allow-list.
func (m *Machine) Policy() Policy {
	return m.policy
}

// RecordUpload stages the content, then creates the next version in the slot.
// The slot's current max is read and written under a per-slot lock; a
// conflicting write from another process is retried once with a fresh max.
func (m *Machine) RecordUpload(ctx context.Context, cmd UploadCommand) (*Version, error) {
	if err := cmd.Slot.Validate(); err != nil {
		return nil, err
	}
	ext, err := m.policy.Check(cmd.File)
	if err != nil {
		return nil, err
	}
	uploader := strings.TrimSpace(cmd.Uploader)
	if uploader == "" {
		return nil, fmt.Errorf("%w: uploader required", ErrValidation)
	}
	if cmd.Content == nil {
		return nil, fmt.Errorf("%w: content required", ErrValidation)
	}

	id := uuid.New()
	key := storageKey(cmd.Slot, id, cmd.File.Filename)

	if err := m.blobs.Store(ctx, key, cmd.Content, cmd.File.SizeBytes); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ContextError(ctxErr)
		}
		return nil, fmt.Errorf("store content: %w", err)
	}

	change, err := m.create(ctx, CreateCommand{
		ID:         id,
		Slot:       cmd.Slot,
		File:       cmd.File,
		Extension:  ext,
		Uploader:   uploader,
		Notes:      strings.TrimSpace(cmd.Notes),
		StorageKey: key,
	})
	if err != nil {
		if delErr := m.blobs.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			m.logger.Error("content cleanup failed", "storage_key", key, "error", delErr)
		}
		return nil, err
	}

	v := change.Version
	m.logger.Info("version uploaded",
		"slot", v.Slot.String(),
		"id", v.ID,
		"number", v.Number,
		"size", v.SizeBytes,
	)

	e := NewEvent(EventUploaded, &v, uploader, "", string(RetentionActive), m.now())
	e.Metadata["filename"] = v.Filename
	e.Metadata["size_bytes"] = v.SizeBytes
	if change.Superseded != nil {
		e.Metadata["superseded_version_id"] = change.Superseded.ID.String()
	}
	m.emit(ctx, e)

	return &v, nil
}

func (m *Machine) create(ctx context.Context, cmd CreateCommand) (*Change, error) {
	release, err := m.locks.acquire(ctx, cmd.Slot)
	if err != nil {
		return nil, ContextError(err)
	}
	defer release()

	var change *Change
	for attempt := 0; attempt < 2; attempt++ {
		err = m.call(ctx, func(ctx context.Context) error {
			current, err := m.store.MaxNumber(ctx, cmd.Slot)
			if err != nil {
				return err
			}
			cmd.ExpectedMax = current
			change, err = m.store.Create(ctx, cmd)
			return err
		})
		if !errors.Is(err, ErrConflict) {
			break
		}
		m.logger.Warn("version sequence advanced concurrently",
			"slot", cmd.Slot.String(), "expected_max", cmd.ExpectedMax, "attempt", attempt+1)
	}
	if err != nil {
		return nil, err
	}
	return change, nil
}

// Delete soft-deletes a version. Deleting an active version leaves the slot
// without an active version until an explicit restore or new upload.
func (m *Machine) Delete(ctx context.Context, id uuid.UUID, actor string) (*Version, error) {
	current, err := m.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Retention == RetentionDeleted {
		return nil, fmt.Errorf("%w: version %s is already deleted", ErrInvalidState, id)
	}

	var v *Version
	err = m.call(ctx, func(ctx context.Context) error {
		v, err = m.store.Delete(ctx, id, current.Retention)
		return err
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("version deleted", "slot", v.Slot.String(), "id", v.ID, "from", current.Retention)
	m.emit(ctx, NewEvent(EventDeleted, v, actor, string(current.Retention), string(RetentionDeleted), m.now()))
	return v, nil
}

// Restore activates a superseded or deleted version. Whichever version is
// active at that moment becomes superseded, regardless of number.
// Verification status carries over unchanged.
func (m *Machine) Restore(ctx context.Context, id uuid.UUID, actor string) (*Change, error) {
	current, err := m.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Retention == RetentionActive {
		return nil, fmt.Errorf("%w: version %s is already active", ErrInvalidState, id)
	}

	release, err := m.locks.acquire(ctx, current.Slot)
	if err != nil {
		return nil, ContextError(err)
	}
	defer release()

	var change *Change
	err = m.call(ctx, func(ctx context.Context) error {
		change, err = m.store.Restore(ctx, id, current.Retention)
		return err
	})
	if err != nil {
		return nil, err
	}

	v := change.Version
	m.logger.Info("version restored", "slot", v.Slot.String(), "id", v.ID, "from", current.Retention)

	e := NewEvent(EventRestored, &v, actor, string(current.Retention), string(RetentionActive), m.now())
	e.Metadata["verification"] = string(v.Verification)
	if change.Superseded != nil {
		e.Metadata["superseded_version_id"] = change.Superseded.ID.String()
	}
	m.emit(ctx, e)

	return change, nil
}

// ListHistory returns a point-in-time snapshot of the slot ordered by
// descending version number.
func (m *Machine) ListHistory(ctx context.Context, slot Slot) ([]Version, error) {
	if err := slot.Validate(); err != nil {
		return nil, err
	}

	var history []Version
	err := m.call(ctx, func(ctx context.Context) (err error) {
		history, err = m.store.List(ctx, slot)
		return err
	})
	return history, err
}

// Find returns the version with id in any retention state, or ErrNotFound.
func (m *Machine) Find(ctx context.Context, id uuid.UUID) (*Version, error) {
	var v *Version
	err := m.call(ctx, func(ctx context.Context) (err error) {
		v, err = m.store.Find(ctx, id)
		return err
	})
	return v, err
}

// call runs fn under the operation timeout and maps context failures.
func (m *Machine) call(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	err := fn(ctx)
	if err != nil && ctx.Err() != nil && !IsDomainError(err) {
		return ContextError(ctx.Err())
	}
	return err
}

func (m *Machine) emit(ctx context.Context, e Event) {
	if err := m.events.Emit(context.WithoutCancel(ctx), e); err != nil {
		m.logger.Error("event emission failed", "event", e.Type, "version_id", e.VersionID, "error", err)
	}
}

// IsDomainError reports whether err wraps one of the package sentinels.
func IsDomainError(err error) bool {
	for _, target := range []error{ErrValidation, ErrConflict, ErrPermission, ErrNotFound, ErrInvalidState} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func storageKey(slot Slot, id uuid.UUID, filename string) string {
	return path.Join("cases", slot.CaseID, slot.DocumentType, id.String(), sanitizeFilename(filename))
}

func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "file"
	}
	return out
}
