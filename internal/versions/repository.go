package versions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/casefile/pkg/query"
	"github.com/JaimeStill/casefile/pkg/repository"
)

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRepository creates a Postgres-backed Store. Numbering races between
// processes surface as unique violations and are reported as ErrConflict.
func NewRepository(db *sql.DB, logger *slog.Logger) Store {
	return &repo{
		db:     db,
		logger: logger.With("system", "versions.repository"),
	}
}

func (r *repo) List(ctx context.Context, slot Slot) ([]Version, error) {
	q, args := query.
		NewBuilder(projection, historyOrder).
		WhereEquals("CaseID", slot.CaseID).
		WhereEquals("DocumentType", slot.DocumentType).
		BuildSelect()

	history, err := repository.QueryMany(ctx, r.db, q, args, scanVersion)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	return history, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Version, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	v, err := repository.QueryOne(ctx, r.db, q, args, scanVersion)
	if err != nil {
		return nil, r.mapError(err, id)
	}
	return &v, nil
}

func (r *repo) MaxNumber(ctx context.Context, slot Slot) (int, error) {
	return maxNumber(ctx, r.db, slot)
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Change, error) {
	supersede := `UPDATE document_versions
		SET retention = 'superseded', updated_at = NOW()
		WHERE case_id = $1 AND document_type = $2 AND retention = 'active'
		` + returning

	insert := `INSERT INTO document_versions(
			id, case_id, document_type, version_number, filename, content_type, extension,
			size_bytes, page_count, uploader, notes, storage_key)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		` + returning

	change, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Change, error) {
		current, err := maxNumber(ctx, tx, cmd.Slot)
		if err != nil {
			return nil, err
		}
		if current != cmd.ExpectedMax {
			return nil, fmt.Errorf("%w: slot %s is at version %d, expected %d",
				ErrConflict, cmd.Slot, current, cmd.ExpectedMax)
		}

		prior, err := repository.QueryMany(ctx, tx, supersede,
			[]any{cmd.Slot.CaseID, cmd.Slot.DocumentType}, scanVersion)
		if err != nil {
			return nil, err
		}

		v, err := repository.QueryOne(ctx, tx, insert, []any{
			cmd.ID, cmd.Slot.CaseID, cmd.Slot.DocumentType, cmd.ExpectedMax + 1,
			cmd.File.Filename, cmd.File.ContentType, cmd.Extension, cmd.File.SizeBytes,
			cmd.File.PageCount, cmd.Uploader, cmd.Notes, cmd.StorageKey,
		}, scanVersion)
		if err != nil {
			return nil, err
		}

		change := &Change{Version: v}
		if len(prior) > 0 {
			change.Superseded = &prior[0]
		}
		return change, nil
	})
	if err != nil {
		return nil, r.mapError(err, cmd.ID)
	}

	return change, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID, expected Retention) (*Version, error) {
	q := `UPDATE document_versions
		SET retention = 'deleted', updated_at = NOW()
		WHERE id = $1 AND retention = $2 AND retention <> 'deleted'
		` + returning

	v, err := repository.QueryOne(ctx, r.db, q, []any{id, string(expected)}, scanVersion)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.stale(ctx, id, "retention", string(expected))
		}
		return nil, r.mapError(err, id)
	}
	return &v, nil
}

func (r *repo) Restore(ctx context.Context, id uuid.UUID, expected Retention) (*Change, error) {
	lock, lockArgs := query.NewBuilder(projection).ForUpdate().BuildSingle("ID", id)

	supersede := `UPDATE document_versions
		SET retention = 'superseded', updated_at = NOW()
		WHERE case_id = $1 AND document_type = $2 AND retention = 'active' AND id <> $3
		` + returning

	activate := `UPDATE document_versions
		SET retention = 'active', updated_at = NOW()
		WHERE id = $1
		` + returning

	change, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (*Change, error) {
		target, err := repository.QueryOne(ctx, tx, lock, lockArgs, scanVersion)
		if err != nil {
			return nil, err
		}
		if target.Retention != expected {
			return nil, fmt.Errorf("%w: version %s retention is %s, expected %s",
				ErrConflict, id, target.Retention, expected)
		}
		if target.Retention == RetentionActive {
			return nil, fmt.Errorf("%w: version %s is already active", ErrInvalidState, id)
		}

		prior, err := repository.QueryMany(ctx, tx, supersede,
			[]any{target.Slot.CaseID, target.Slot.DocumentType, id}, scanVersion)
		if err != nil {
			return nil, err
		}

		v, err := repository.QueryOne(ctx, tx, activate, []any{id}, scanVersion)
		if err != nil {
			return nil, err
		}

		change := &Change{Version: v}
		if len(prior) > 0 {
			change.Superseded = &prior[0]
		}
		return change, nil
	})
	if err != nil {
		return nil, r.mapError(err, id)
	}

	return change, nil
}

func (r *repo) SetVerification(ctx context.Context, cmd VerificationCommand) (*Version, error) {
	q := `UPDATE document_versions
		SET verification = $1, rejection_reason = $2, updated_at = NOW()
		WHERE id = $3 AND verification = $4
		` + returning

	v, err := repository.QueryOne(ctx, r.db, q,
		[]any{string(cmd.Status), cmd.Reason, cmd.ID, string(cmd.Expected)}, scanVersion)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.stale(ctx, cmd.ID, "verification", string(cmd.Expected))
		}
		return nil, r.mapError(err, cmd.ID)
	}
	return &v, nil
}

// stale distinguishes a missing row from a compare-and-set miss.
func (r *repo) stale(ctx context.Context, id uuid.UUID, field, expected string) error {
	if _, err := r.Find(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("%w: version %s %s no longer %s", ErrConflict, id, field, expected)
}

func (r *repo) mapError(err error, id uuid.UUID) error {
	if IsDomainError(err) {
		return err
	}
	mapped := repository.MapError(err, fmt.Errorf("%w: %s", ErrNotFound, id), ErrConflict)
	if errors.Is(mapped, ErrConflict) {
		r.logger.Warn("write conflict", "id", id, "error", err)
	}
	return mapped
}

func maxNumber(ctx context.Context, q repository.Querier, slot Slot) (int, error) {
	var current int
	err := q.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version_number), 0) FROM document_versions
		WHERE case_id = $1 AND document_type = $2`,
		slot.CaseID, slot.DocumentType,
	).Scan(&current)
	if err != nil {
		return 0, fmt.Errorf("read max version: %w", err)
	}
	return current, nil
}
