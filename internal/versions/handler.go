package versions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/casefile/pkg/handlers"
	"github.com/JaimeStill/casefile/pkg/routes"
)

// multipartOverhead is the allowance for form fields and boundaries on top
// of the file size limit.
const multipartOverhead = 1 << 20

// ActorFunc resolves the acting principal for a request.
type ActorFunc func(ctx context.Context) string

// Handler provides HTTP endpoints for uploads and version history.
type Handler struct {
	sys    System
	policy Policy
	actor  ActorFunc
	logger *slog.Logger
}

// NewHandler creates a versions handler.
func NewHandler(sys System, policy Policy, actor ActorFunc, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		policy: policy,
		actor:  actor,
		logger: logger.With("handler", "versions"),
	}
}

// Routes returns the slot and version route groups.
func (h *Handler) Routes() []routes.Group {
	return []routes.Group{
		{
			Prefix:      "/cases/{caseId}/documents/{documentType}/versions",
			Description: "Document slot uploads and history",
			Routes: []routes.Route{
				{Method: "GET", Pattern: "", Handler: h.History, OpenAPI: Spec.History},
				{Method: "POST", Pattern: "", Handler: h.Upload, OpenAPI: Spec.Upload},
			},
		},
		{
			Prefix:      "/versions",
			Description: "Individual document versions",
			Routes: []routes.Route{
				{Method: "GET", Pattern: "/{id}", Handler: h.Find, OpenAPI: Spec.Find},
			},
		},
	}
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	history, err := h.sys.ListHistory(r.Context(), SlotFromRequest(r))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, history)
}

func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	v, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, v)
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	slot := SlotFromRequest(r)
	if err := slot.Validate(); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	if err := ParseMultipart(w, r, h.policy.MaxSize+multipartOverhead); err != nil {
		handlers.RespondError(w, h.logger, UploadStatus(err), err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		err = fmt.Errorf("%w: file field required", ErrValidation)
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	defer file.Close()

	contentType, pageCount, err := Inspect(file, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		h.logger.Warn("file inspection incomplete", "filename", header.Filename, "error", err)
		if contentType == "" {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %v", ErrValidation, err))
			return
		}
	}

	v, err := h.sys.RecordUpload(r.Context(), UploadCommand{
		Slot: slot,
		File: FileMeta{
			Filename:    header.Filename,
			ContentType: contentType,
			SizeBytes:   header.Size,
			PageCount:   pageCount,
		},
		Notes:    r.FormValue("notes"),
		Uploader: h.actor(r.Context()),
		Content:  file,
	})
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, v)
}

// SlotFromRequest reads the caseId and documentType path values.
func SlotFromRequest(r *http.Request) Slot {
	return Slot{
		CaseID:       r.PathValue("caseId"),
		DocumentType: r.PathValue("documentType"),
	}
}

// ParseID reads the id path value.
func ParseID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid version id", ErrValidation)
	}
	return id, nil
}

// ErrRequestTooLarge is returned when a multipart body exceeds its limit.
var ErrRequestTooLarge = fmt.Errorf("%w: request body too large", ErrValidation)

// ParseMultipart limits the body to maxBytes before parsing, so oversized
// uploads fail without buffering the whole request.
func ParseMultipart(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return fmt.Errorf("%w: multipart/form-data required", ErrValidation)
	}
	if r.ContentLength > maxBytes {
		return ErrRequestTooLarge
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return ErrRequestTooLarge
		}
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

// UploadStatus maps an upload error to its HTTP status, reporting oversized
// bodies as 413.
func UploadStatus(err error) int {
	if errors.Is(err, ErrRequestTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return MapHTTPStatus(err)
}
