package events

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/casefile/internal/versions"
	"github.com/JaimeStill/casefile/pkg/handlers"
	"github.com/JaimeStill/casefile/pkg/pagination"
	"github.com/JaimeStill/casefile/pkg/routes"
)

// Handler serves the recorded timeline of a case.
type Handler struct {
	timeline   Timeline
	pagination pagination.Config
	logger     *slog.Logger
}

func NewHandler(timeline Timeline, cfg pagination.Config, logger *slog.Logger) *Handler {
	return &Handler{
		timeline:   timeline,
		pagination: cfg,
		logger:     logger.With("handler", "timeline"),
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/cases/{caseId}/timeline",
		Description: "Version lifecycle events per case",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List, OpenAPI: Spec.List},
		},
	}
}

// List accepts optional document_type and version_id filters plus page and
// page_size.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	filter := Filter{
		CaseID:       r.PathValue("caseId"),
		DocumentType: values.Get("document_type"),
	}

	if err := versions.ValidateCaseID(filter.CaseID); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	if filter.DocumentType != "" {
		if err := versions.ValidateDocumentType(filter.DocumentType); err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
			return
		}
	}

	if v := values.Get("version_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest,
				fmt.Errorf("%w: invalid version_id", versions.ErrValidation))
			return
		}
		filter.VersionID = id.String()
	}

	page := pagination.PageRequestFromQuery(values, h.pagination)
	result, err := h.timeline.List(r.Context(), filter, page)
	if err != nil {
		handlers.RespondError(w, h.logger, versions.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
