package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/casefile/internal/versions"
	"github.com/JaimeStill/casefile/pkg/pagination"
	"github.com/JaimeStill/casefile/pkg/query"
	"github.com/JaimeStill/casefile/pkg/repository"
)

var projection = query.NewProjectionMap("public", "version_events", "e").
	Project("id", "ID").
	Project("event_type", "Type").
	Project("version_id", "VersionID").
	Project("case_id", "CaseID").
	Project("document_type", "DocumentType").
	Project("actor", "Actor").
	Project("from_status", "From").
	Project("to_status", "To").
	Project("metadata", "Metadata").
	Project("occurred_at", "Timestamp")

var newestFirst = query.SortField{Field: "Timestamp", Descending: true}

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRepository creates a Timeline backed by the version_events table.
func NewRepository(db *sql.DB, logger *slog.Logger) Timeline {
	return &repo{
		db:     db,
		logger: logger.With("system", "events.repository"),
	}
}

func (r *repo) Emit(ctx context.Context, e versions.Event) error {
	metadata, err := json.Marshal(e.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if e.Metadata == nil {
		metadata = []byte("{}")
	}

	q := `INSERT INTO version_events(
			id, event_type, version_id, case_id, document_type, actor,
			from_status, to_status, metadata, occurred_at)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10)`

	if err := repository.ExecExpectOne(ctx, r.db, q,
		e.ID, string(e.Type), e.VersionID, e.Slot.CaseID, e.Slot.DocumentType, e.Actor,
		e.From, e.To, string(metadata), e.Timestamp,
	); err != nil {
		return fmt.Errorf("record event: %w", err)
	}
	return nil
}

func (r *repo) List(ctx context.Context, filter Filter, page pagination.PageRequest) (pagination.PageResult[versions.Event], error) {
	page.Normalize(fallbackPage)

	var versionID any
	if filter.VersionID != "" {
		versionID = filter.VersionID
	}
	var documentType any
	if filter.DocumentType != "" {
		documentType = filter.DocumentType
	}

	countSQL, countArgs := query.NewBuilder(projection).
		WhereEquals("CaseID", filter.CaseID).
		WhereEquals("DocumentType", documentType).
		WhereEquals("VersionID", versionID).
		BuildCount()

	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return pagination.PageResult[versions.Event]{}, fmt.Errorf("count events: %w", err)
	}

	pageSQL, pageArgs := query.NewBuilder(projection, newestFirst).
		WhereEquals("CaseID", filter.CaseID).
		WhereEquals("DocumentType", documentType).
		WhereEquals("VersionID", versionID).
		BuildPage(page.Page, page.PageSize)

	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanEvent)
	if err != nil {
		return pagination.PageResult[versions.Event]{}, fmt.Errorf("query events: %w", err)
	}

	return pagination.NewPageResult(items, total, page.Page, page.PageSize), nil
}

func scanEvent(s repository.Scanner) (versions.Event, error) {
	var (
		e        versions.Event
		metadata []byte
	)
	err := s.Scan(
		&e.ID,
		&e.Type,
		&e.VersionID,
		&e.Slot.CaseID,
		&e.Slot.DocumentType,
		&e.Actor,
		&e.From,
		&e.To,
		&metadata,
		&e.Timestamp,
	)
	if err != nil {
		return e, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
			return e, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return e, nil
}
