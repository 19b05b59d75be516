package versions_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/casefile/internal/testdb"
	"github.com/JaimeStill/casefile/internal/versions"
	"github.com/JaimeStill/casefile/pkg/logging"
)

func TestRepository_Lifecycle(t *testing.T) {
	db := testdb.Start(t)
	ctx := context.Background()
	m, _ := newMachine(t, versions.NewRepository(db, logging.Discard()))

	v1, err := m.RecordUpload(ctx, upload("a.txt", "one"))
	require.NoError(t, err)
	v2, err := m.RecordUpload(ctx, upload("b.txt", "two"))
	require.NoError(t, err)
	assert.Equal(t, 2, v2.Number)

	_, err = m.Delete(ctx, v2.ID, "reviewer")
	require.NoError(t, err)
	_, err = m.Delete(ctx, v2.ID, "reviewer")
	assert.ErrorIs(t, err, versions.ErrInvalidState)

	change, err := m.Restore(ctx, v1.ID, "reviewer")
	require.NoError(t, err)
	assert.Equal(t, versions.RetentionActive, change.Version.Retention)
	assert.Nil(t, change.Superseded)

	assert.Equal(t, map[int]versions.Retention{
		1: versions.RetentionActive,
		2: versions.RetentionDeleted,
	}, retentionByNumber(t, m, slotX))

	_, err = m.Find(ctx, uuid.New())
	assert.ErrorIs(t, err, versions.ErrNotFound)
}

func TestRepository_CompareAndSet(t *testing.T) {
	db := testdb.Start(t)
	ctx := context.Background()
	store := versions.NewRepository(db, logging.Discard())

	create := func(expectedMax int) (*versions.Change, error) {
		id := uuid.New()
		return store.Create(ctx, versions.CreateCommand{
			ID:          id,
			Slot:        slotX,
			ExpectedMax: expectedMax,
			File:        versions.FileMeta{Filename: "a.pdf", ContentType: "application/pdf", SizeBytes: 10},
			Extension:   ".pdf",
			Uploader:    "agent-7",
			StorageKey:  fmt.Sprintf("cases/%s/%s", slotX, id),
		})
	}

	first, err := create(0)
	require.NoError(t, err)
	assert.Nil(t, first.Superseded)

	_, err = create(0)
	assert.ErrorIs(t, err, versions.ErrConflict)

	second, err := create(1)
	require.NoError(t, err)
	require.NotNil(t, second.Superseded)
	assert.Equal(t, first.Version.ID, second.Superseded.ID)

	_, err = store.Delete(ctx, first.Version.ID, versions.RetentionActive)
	assert.ErrorIs(t, err, versions.ErrConflict)

	_, err = store.SetVerification(ctx, versions.VerificationCommand{
		ID: second.Version.ID, Expected: versions.VerificationPending,
		Status: versions.VerificationRejected, Reason: "blurry",
	})
	require.NoError(t, err)

	_, err = store.SetVerification(ctx, versions.VerificationCommand{
		ID: second.Version.ID, Expected: versions.VerificationPending,
		Status: versions.VerificationVerified,
	})
	assert.ErrorIs(t, err, versions.ErrConflict)

	found, err := store.Find(ctx, second.Version.ID)
	require.NoError(t, err)
	assert.Equal(t, "blurry", found.RejectionReason)
}
