// Package docs serves the generated OpenAPI document and an interactive
// Scalar reference that renders it.
package docs

import (
	_ "embed"
	"net/http"

	"github.com/JaimeStill/casefile/pkg/routes"
)

//go:embed index.html
var indexHTML []byte

// Handler serves the API description.
type Handler struct {
	spec []byte
}

// NewHandler creates a documentation handler for the marshaled spec.
func NewHandler(spec []byte) *Handler {
	return &Handler{spec: spec}
}

// Routes returns the public documentation routes.
func (h *Handler) Routes() []routes.Route {
	return []routes.Route{
		{Method: "GET", Pattern: "/docs", Handler: h.serveIndex},
		{Method: "GET", Pattern: "/openapi.json", Handler: h.serveSpec},
	}
}

func (h *Handler) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(indexHTML)
}

func (h *Handler) serveSpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(h.spec)
}
