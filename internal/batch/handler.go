package batch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/JaimeStill/casefile/internal/versions"
	"github.com/JaimeStill/casefile/pkg/handlers"
	"github.com/JaimeStill/casefile/pkg/routes"
)

// Handler exposes batch uploads into a single slot.
type Handler struct {
	orchestrator *Orchestrator
	policy       versions.Policy
	maxFiles     int
	actor        versions.ActorFunc
	logger       *slog.Logger
}

// NewHandler creates a batch upload handler.
func NewHandler(o *Orchestrator, policy versions.Policy, maxFiles int, actor versions.ActorFunc, logger *slog.Logger) *Handler {
	return &Handler{
		orchestrator: o,
		policy:       policy,
		maxFiles:     maxFiles,
		actor:        actor,
		logger:       logger.With("handler", "batch"),
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/cases/{caseId}/documents/{documentType}/versions/batch",
		Description: "Multi-file uploads with partial success",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Upload, OpenAPI: Spec.Upload},
		},
	}
}

// Upload responds 200 for completed or partial batches and 422 when every
// file failed.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	slot := versions.SlotFromRequest(r)
	if err := slot.Validate(); err != nil {
		handlers.RespondError(w, h.logger, versions.MapHTTPStatus(err), err)
		return
	}

	limit := int64(h.maxFiles) * (h.policy.MaxSize + 4096)
	if err := versions.ParseMultipart(w, r, limit+(1<<20)); err != nil {
		handlers.RespondError(w, h.logger, versions.UploadStatus(err), err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		err := fmt.Errorf("%w: at least one file required", versions.ErrValidation)
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	if len(headers) > h.maxFiles {
		err := fmt.Errorf("%w: %d files exceeds limit of %d", versions.ErrValidation, len(headers), h.maxFiles)
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	actor := h.actor(r.Context())
	notes := r.FormValue("notes")

	files := make([]File, len(headers))
	for i, fh := range headers {
		files[i] = h.fileFromHeader(slot, fh, notes, actor)
	}

	report := h.orchestrator.Upload(r.Context(), files)

	status := http.StatusOK
	if report.Outcome() == OutcomeFailed {
		status = http.StatusUnprocessableEntity
	}
	handlers.RespondJSON(w, status, report)
}

// fileFromHeader defers content inspection to the worker so large PDFs are
// parsed under the pool limit and the per-file timeout.
func (h *Handler) fileFromHeader(slot versions.Slot, fh *multipart.FileHeader, notes, actor string) File {
	return File{
		Slot: slot,
		Meta: versions.FileMeta{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			SizeBytes:   fh.Size,
		},
		Notes:    notes,
		Uploader: actor,
		Prepare: func(ctx context.Context, meta versions.FileMeta) (versions.FileMeta, error) {
			f, err := fh.Open()
			if err != nil {
				return meta, fmt.Errorf("open %s: %w", fh.Filename, err)
			}
			defer f.Close()

			contentType, pageCount, err := versions.Inspect(f, fh.Filename, meta.ContentType)
			if err != nil {
				h.logger.Warn("file inspection incomplete", "filename", fh.Filename, "error", err)
			}
			if contentType != "" {
				meta.ContentType = contentType
			}
			meta.PageCount = pageCount
			return meta, nil
		},
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}
