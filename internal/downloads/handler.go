package downloads

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/JaimeStill/casefile/internal/versions"
	"github.com/JaimeStill/casefile/pkg/handlers"
	"github.com/JaimeStill/casefile/pkg/routes"
	"github.com/JaimeStill/casefile/pkg/storage"
)

// Handler serves download links.
type Handler struct {
	svc    *Service
	logger *slog.Logger
}

func NewHandler(svc *Service, logger *slog.Logger) *Handler {
	return &Handler{
		svc:    svc,
		logger: logger.With("handler", "downloads"),
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/versions/{id}/download",
		Description: "Signed download links",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.Link, OpenAPI: Spec.Link},
		},
	}
}

func (h *Handler) Link(w http.ResponseWriter, r *http.Request) {
	id, err := versions.ParseID(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	link, err := h.svc.Link(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, versions.MapHTTPStatus(err), err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	handlers.RespondJSON(w, http.StatusOK, link)
}

// TokenVerifier resolves a signed link token to a storage key.
type TokenVerifier interface {
	Verify(token string) (key, filename string, err error)
}

// Opener reads stored content.
type Opener interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// BlobHandler streams filesystem content for signed link tokens. The token
// is the only credential, so the route sits outside authentication.
type BlobHandler struct {
	verifier TokenVerifier
	opener   Opener
	logger   *slog.Logger
}

func NewBlobHandler(verifier TokenVerifier, opener Opener, logger *slog.Logger) *BlobHandler {
	return &BlobHandler{
		verifier: verifier,
		opener:   opener,
		logger:   logger.With("handler", "blobs"),
	}
}

func (h *BlobHandler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/blobs",
		Description: "Signed blob downloads",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{token}", Handler: h.Serve},
		},
	}
}

func (h *BlobHandler) Serve(w http.ResponseWriter, r *http.Request) {
	key, filename, err := h.verifier.Verify(r.PathValue("token"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusForbidden, err)
		return
	}

	rc, err := h.opener.Open(r.Context(), key)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, storage.ErrNotFound) {
			status = http.StatusNotFound
		}
		handlers.RespondError(w, h.logger, status, err)
		return
	}
	defer rc.Close()

	if filename == "" {
		filename = filepath.Base(key)
	}
	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Cache-Control", "private, no-store")
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("blob stream interrupted", "key", key, "error", err)
	}
}
