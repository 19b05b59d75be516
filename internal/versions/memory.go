package versions

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryStore struct {
	mu       sync.Mutex
	versions map[uuid.UUID]*Version
	slots    map[Slot][]uuid.UUID
	now      func() time.Time
}

// NewMemoryStore creates a process-local Store. It applies the same
// compare-and-set rules as the Postgres store.
func NewMemoryStore() Store {
	return &memoryStore{
		versions: make(map[uuid.UUID]*Version),
		slots:    make(map[Slot][]uuid.UUID),
		now:      time.Now,
	}
}

func (s *memoryStore) List(ctx context.Context, slot Slot) ([]Version, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.slots[slot]
	history := make([]Version, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		history = append(history, *s.versions[ids[i]])
	}
	return history, nil
}

func (s *memoryStore) Find(ctx context.Context, id uuid.UUID) (*Version, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.versions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	out := *v
	return &out, nil
}

func (s *memoryStore) MaxNumber(ctx context.Context, slot Slot) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.slots[slot]), nil
}

func (s *memoryStore) Create(ctx context.Context, cmd CreateCommand) (*Change, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.slots[cmd.Slot]
	if len(ids) != cmd.ExpectedMax {
		return nil, fmt.Errorf("%w: slot %s is at version %d, expected %d",
			ErrConflict, cmd.Slot, len(ids), cmd.ExpectedMax)
	}
	if _, exists := s.versions[cmd.ID]; exists {
		return nil, fmt.Errorf("%w: duplicate id %s", ErrConflict, cmd.ID)
	}

	now := s.now().UTC()
	change := &Change{}
	if prior := s.activeLocked(cmd.Slot); prior != nil {
		prior.Retention = RetentionSuperseded
		prior.UpdatedAt = now
		superseded := *prior
		change.Superseded = &superseded
	}

	v := &Version{
		ID:           cmd.ID,
		Slot:         cmd.Slot,
		Number:       cmd.ExpectedMax + 1,
		Filename:     cmd.File.Filename,
		ContentType:  cmd.File.ContentType,
		Extension:    cmd.Extension,
		SizeBytes:    cmd.File.SizeBytes,
		PageCount:    cmd.File.PageCount,
		Uploader:     cmd.Uploader,
		Notes:        cmd.Notes,
		Retention:    RetentionActive,
		Verification: VerificationPending,
		StorageKey:   cmd.StorageKey,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.versions[v.ID] = v
	s.slots[cmd.Slot] = append(ids, v.ID)

	change.Version = *v
	return change, nil
}

func (s *memoryStore) Delete(ctx context.Context, id uuid.UUID, expected Retention) (*Version, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.expectLocked(id, expected)
	if err != nil {
		return nil, err
	}
	if v.Retention == RetentionDeleted {
		return nil, fmt.Errorf("%w: version %s is already deleted", ErrInvalidState, id)
	}

	v.Retention = RetentionDeleted
	v.UpdatedAt = s.now().UTC()
	out := *v
	return &out, nil
}

func (s *memoryStore) Restore(ctx context.Context, id uuid.UUID, expected Retention) (*Change, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.expectLocked(id, expected)
	if err != nil {
		return nil, err
	}
	if v.Retention == RetentionActive {
		return nil, fmt.Errorf("%w: version %s is already active", ErrInvalidState, id)
	}

	now := s.now().UTC()
	change := &Change{}
	if prior := s.activeLocked(v.Slot); prior != nil {
		prior.Retention = RetentionSuperseded
		prior.UpdatedAt = now
		superseded := *prior
		change.Superseded = &superseded
	}

	v.Retention = RetentionActive
	v.UpdatedAt = now
	change.Version = *v
	return change, nil
}

func (s *memoryStore) SetVerification(ctx context.Context, cmd VerificationCommand) (*Version, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.versions[cmd.ID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, cmd.ID)
	}
	if v.Verification != cmd.Expected {
		return nil, fmt.Errorf("%w: version %s verification is %s, expected %s",
			ErrConflict, cmd.ID, v.Verification, cmd.Expected)
	}

	v.Verification = cmd.Status
	v.RejectionReason = cmd.Reason
	v.UpdatedAt = s.now().UTC()
	out := *v
	return &out, nil
}

func (s *memoryStore) expectLocked(id uuid.UUID, expected Retention) (*Version, error) {
	v, ok := s.versions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if v.Retention != expected {
		return nil, fmt.Errorf("%w: version %s retention is %s, expected %s",
			ErrConflict, id, v.Retention, expected)
	}
	return v, nil
}

func (s *memoryStore) activeLocked(slot Slot) *Version {
	idx := slices.IndexFunc(s.slots[slot], func(id uuid.UUID) bool {
		return s.versions[id].Retention == RetentionActive
	})
	if idx < 0 {
		return nil
	}
	return s.versions[s.slots[slot][idx]]
}
