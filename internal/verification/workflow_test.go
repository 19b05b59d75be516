package verification_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/casefile/internal/verification"
	"github.com/JaimeStill/casefile/internal/versions"
	"github.com/JaimeStill/casefile/pkg/logging"
)

var slotX = versions.Slot{CaseID: "case-1", DocumentType: "passport"}

type discardBlobs struct{}

func (discardBlobs) Store(ctx context.Context, key string, r io.Reader, size int64) error {
	_, err := io.Copy(io.Discard, r)
	return err
}

func (discardBlobs) Delete(ctx context.Context, key string) error { return nil }

type recorder struct {
	mu     sync.Mutex
	events []versions.Event
}

func (r *recorder) Emit(ctx context.Context, e versions.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) last() versions.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

func (r *recorder) types() []versions.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]versions.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	machine  *versions.Machine
	workflow *verification.Workflow
	events   *recorder
}

func newFixture(t *testing.T, store versions.Store) *fixture {
	t.Helper()
	events := &recorder{}
	policy := versions.NewPolicy(1024, []string{".txt"}, []string{"text/plain"})
	m := versions.NewMachine(store, discardBlobs{}, policy, time.Second, logging.Discard(), versions.WithEvents(events))
	w := verification.New(m, store, time.Second, logging.Discard(), verification.WithEvents(events))
	return &fixture{machine: m, workflow: w, events: events}
}

func (f *fixture) upload(t *testing.T, name, body string) *versions.Version {
	t.Helper()
	v, err := f.machine.RecordUpload(context.Background(), versions.UploadCommand{
		Slot:     slotX,
		File:     versions.FileMeta{Filename: name, ContentType: "text/plain", SizeBytes: int64(len(body))},
		Uploader: "agent-7",
		Content:  strings.NewReader(body),
	})
	require.NoError(t, err)
	return v
}

func (f *fixture) find(t *testing.T, id uuid.UUID) *versions.Version {
	t.Helper()
	v, err := f.machine.Find(context.Background(), id)
	require.NoError(t, err)
	return v
}

func TestEndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, versions.NewMemoryStore())

	v1 := f.upload(t, "a.txt", "file A")
	assert.Equal(t, 1, v1.Number)
	assert.Equal(t, versions.RetentionActive, v1.Retention)
	assert.Equal(t, versions.VerificationPending, v1.Verification)

	verified, err := f.workflow.Verify(ctx, v1.ID, "reviewer-1")
	require.NoError(t, err)
	assert.Equal(t, versions.VerificationVerified, verified.Verification)

	v2 := f.upload(t, "b.txt", "file B")
	assert.Equal(t, 2, v2.Number)
	assert.Equal(t, versions.RetentionActive, v2.Retention)
	assert.Equal(t, versions.VerificationPending, v2.Verification)

	got := f.find(t, v1.ID)
	assert.Equal(t, versions.RetentionSuperseded, got.Retention)
	assert.Equal(t, versions.VerificationVerified, got.Verification)

	deleted, err := f.workflow.Delete(ctx, v2.ID, "reviewer-1")
	require.NoError(t, err)
	assert.Equal(t, versions.RetentionDeleted, deleted.Retention)
	assert.Equal(t, versions.VerificationPending, deleted.Verification)

	history, err := f.machine.ListHistory(ctx, slotX)
	require.NoError(t, err)
	for _, v := range history {
		assert.NotEqual(t, versions.RetentionActive, v.Retention, "slot has no active version")
	}

	change, err := f.workflow.Restore(ctx, v1.ID, "reviewer-1")
	require.NoError(t, err)
	assert.Nil(t, change.Superseded)

	final := map[int][2]string{}
	history, err = f.machine.ListHistory(ctx, slotX)
	require.NoError(t, err)
	for _, v := range history {
		final[v.Number] = [2]string{string(v.Retention), string(v.Verification)}
	}
	assert.Equal(t, map[int][2]string{
		1: {"active", "verified"},
		2: {"deleted", "pending"},
	}, final)

	assert.Equal(t, []versions.EventType{
		versions.EventUploaded,
		versions.EventVerified,
		versions.EventUploaded,
		versions.EventDeleted,
		versions.EventRestored,
	}, f.events.types())
}

func TestVerify_EmitsEvent(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	events := &recorder{}
	store := versions.NewMemoryStore()
	policy := versions.NewPolicy(1024, nil, nil)
	m := versions.NewMachine(store, discardBlobs{}, policy, 0, logging.Discard())
	w := verification.New(m, store, 0, logging.Discard(),
		verification.WithEvents(events),
		verification.WithClock(func() time.Time { return now }),
	)
	f := &fixture{machine: m, workflow: w, events: events}

	v := f.upload(t, "a.txt", "x")
	_, err := w.Verify(context.Background(), v.ID, "reviewer-1")
	require.NoError(t, err)

	e := events.last()
	assert.Equal(t, versions.EventVerified, e.Type)
	assert.Equal(t, v.ID, e.VersionID)
	assert.Equal(t, slotX, e.Slot)
	assert.Equal(t, "reviewer-1", e.Actor)
	assert.Equal(t, now, e.Timestamp)
	assert.Equal(t, "pending", e.From)
	assert.Equal(t, "verified", e.To)
	assert.Equal(t, "active", e.Metadata["retention"])
}

func TestReject(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, versions.NewMemoryStore())
	v := f.upload(t, "a.txt", "x")

	_, err := f.workflow.Reject(ctx, v.ID, "reviewer-1", "   ")
	assert.ErrorIs(t, err, versions.ErrValidation)

	_, err = f.workflow.Reject(ctx, v.ID, "reviewer-1", strings.Repeat("r", 2001))
	assert.ErrorIs(t, err, versions.ErrValidation)

	rejected, err := f.workflow.Reject(ctx, v.ID, "reviewer-1", "  blurry scan ")
	require.NoError(t, err)
	assert.Equal(t, versions.VerificationRejected, rejected.Verification)
	assert.Equal(t, "blurry scan", rejected.RejectionReason)

	e := f.events.last()
	assert.Equal(t, versions.EventRejected, e.Type)
	assert.Equal(t, "blurry scan", e.Metadata["reason"])
}

func TestTerminalStates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, versions.NewMemoryStore())

	verified := f.upload(t, "a.txt", "x")
	_, err := f.workflow.Verify(ctx, verified.ID, "reviewer-1")
	require.NoError(t, err)

	rejected := f.upload(t, "b.txt", "y")
	_, err = f.workflow.Reject(ctx, rejected.ID, "reviewer-1", "wrong document")
	require.NoError(t, err)

	tests := []struct {
		name string
		id   uuid.UUID
		op   func(id uuid.UUID) error
		want versions.Verification
	}{
		{"verified cannot be rejected", verified.ID, func(id uuid.UUID) error {
			_, err := f.workflow.Reject(ctx, id, "reviewer-2", "changed my mind")
			return err
		}, versions.VerificationVerified},
		{"verified cannot be re-verified", verified.ID, func(id uuid.UUID) error {
			_, err := f.workflow.Verify(ctx, id, "reviewer-2")
			return err
		}, versions.VerificationVerified},
		{"rejected cannot be verified", rejected.ID, func(id uuid.UUID) error {
			_, err := f.workflow.Verify(ctx, id, "reviewer-2")
			return err
		}, versions.VerificationRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.op(tt.id), versions.ErrInvalidState)
			assert.Equal(t, tt.want, f.find(t, tt.id).Verification)
		})
	}

	// Retention transitions leave verification alone.
	_, err = f.workflow.Restore(ctx, verified.ID, "reviewer-1")
	require.NoError(t, err)
	_, err = f.workflow.Delete(ctx, verified.ID, "reviewer-1")
	require.NoError(t, err)
	_, err = f.workflow.Restore(ctx, verified.ID, "reviewer-1")
	require.NoError(t, err)
	assert.Equal(t, versions.VerificationVerified, f.find(t, verified.ID).Verification)
}

func TestVerify_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, versions.NewMemoryStore())
	v := f.upload(t, "a.txt", "x")

	_, err := f.workflow.Verify(ctx, uuid.New(), "reviewer-1")
	assert.ErrorIs(t, err, versions.ErrNotFound)

	_, err = f.workflow.Verify(ctx, v.ID, " ")
	assert.ErrorIs(t, err, versions.ErrValidation)

	_, err = f.workflow.Delete(ctx, v.ID, "reviewer-1")
	require.NoError(t, err)
	_, err = f.workflow.Verify(ctx, v.ID, "reviewer-1")
	assert.ErrorIs(t, err, versions.ErrInvalidState)

	_, err = f.workflow.Delete(ctx, v.ID, "reviewer-1")
	assert.ErrorIs(t, err, versions.ErrInvalidState)
}

// racingStore verifies the version behind the workflow's back between its
// read and its write.
type racingStore struct {
	versions.Store
	once sync.Once
}

func (s *racingStore) SetVerification(ctx context.Context, cmd versions.VerificationCommand) (*versions.Version, error) {
	s.once.Do(func() {
		_, _ = s.Store.SetVerification(ctx, versions.VerificationCommand{
			ID: cmd.ID, Expected: versions.VerificationPending, Status: versions.VerificationVerified,
		})
	})
	return s.Store.SetVerification(ctx, cmd)
}

func TestReject_StaleWriteConflicts(t *testing.T) {
	store := &racingStore{Store: versions.NewMemoryStore()}
	f := newFixture(t, store)
	v := f.upload(t, "a.txt", "x")

	_, err := f.workflow.Reject(context.Background(), v.ID, "reviewer-2", "too late")
	assert.ErrorIs(t, err, versions.ErrConflict)
	assert.Equal(t, versions.VerificationVerified, f.find(t, v.ID).Verification)
}

type deniedStore struct{ versions.Store }

func (deniedStore) SetVerification(ctx context.Context, cmd versions.VerificationCommand) (*versions.Version, error) {
	return nil, fmt.Errorf("%w: verifier capability required", versions.ErrPermission)
}

func TestVerify_PermissionSurfaces(t *testing.T) {
	f := newFixture(t, deniedStore{versions.NewMemoryStore()})
	v := f.upload(t, "a.txt", "x")

	_, err := f.workflow.Verify(context.Background(), v.ID, "agent-7")
	assert.ErrorIs(t, err, versions.ErrPermission)
	assert.False(t, errors.Is(err, versions.ErrInvalidState))
}

type slowStore struct{ versions.Store }

func (slowStore) SetVerification(ctx context.Context, cmd versions.VerificationCommand) (*versions.Version, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestVerify_Timeout(t *testing.T) {
	store := slowStore{versions.NewMemoryStore()}
	policy := versions.NewPolicy(1024, nil, nil)
	m := versions.NewMachine(store, discardBlobs{}, policy, time.Second, logging.Discard())
	w := verification.New(m, store, 20*time.Millisecond, logging.Discard())
	f := &fixture{machine: m, workflow: w, events: &recorder{}}

	v := f.upload(t, "a.txt", "x")
	_, err := w.Verify(context.Background(), v.ID, "reviewer-1")
	assert.ErrorIs(t, err, versions.ErrTimeout)
	assert.True(t, versions.Retryable(err))
}
