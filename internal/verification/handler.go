package verification

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/casefile/internal/versions"
	"github.com/JaimeStill/casefile/pkg/decode"
	"github.com/JaimeStill/casefile/pkg/handlers"
	"github.com/JaimeStill/casefile/pkg/routes"
)

const maxBodyBytes = 16 << 10

// RejectRequest is the body of a reject action.
type RejectRequest struct {
	Reason string `json:"reason"`
}

// Handler exposes reviewer actions on individual versions.
type Handler struct {
	sys    System
	replay *Replay
	actor  versions.ActorFunc
	logger *slog.Logger
}

// NewHandler creates a verification handler. replay may be nil to disable
// idempotent replays.
func NewHandler(sys System, replay *Replay, actor versions.ActorFunc, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		replay: replay,
		actor:  actor,
		logger: logger.With("handler", "verification"),
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/versions/{id}",
		Description: "Version retention and verification actions",
		Routes: []routes.Route{
			{Method: "DELETE", Pattern: "", Handler: h.Delete, OpenAPI: Spec.Delete},
			{Method: "POST", Pattern: "/restore", Handler: h.Restore, OpenAPI: Spec.Restore},
			{Method: "POST", Pattern: "/verify", Handler: h.Verify, OpenAPI: Spec.Verify},
			{Method: "POST", Pattern: "/reject", Handler: h.Reject, OpenAPI: Spec.Reject},
		},
	}
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, func(actor string) (any, error) {
		id, err := versions.ParseID(r)
		if err != nil {
			return nil, err
		}
		return h.sys.Delete(r.Context(), id, actor)
	})
}

func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, func(actor string) (any, error) {
		id, err := versions.ParseID(r)
		if err != nil {
			return nil, err
		}
		return h.sys.Restore(r.Context(), id, actor)
	})
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, func(actor string) (any, error) {
		id, err := versions.ParseID(r)
		if err != nil {
			return nil, err
		}
		return h.sys.Verify(r.Context(), id, actor)
	})
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, func(actor string) (any, error) {
		id, err := versions.ParseID(r)
		if err != nil {
			return nil, err
		}
		body, err := decode.JSON[RejectRequest](w, r, maxBodyBytes)
		if err != nil {
			if errors.Is(err, decode.ErrEmptyBody) {
				return nil, fmt.Errorf("%w: rejection reason required", versions.ErrValidation)
			}
			return nil, fmt.Errorf("%w: %v", versions.ErrValidation, err)
		}
		return h.sys.Reject(r.Context(), id, actor, body.Reason)
	})
}

// action runs fn once per idempotency key. Only successful results are
// cached, so a failed attempt can be retried with the same key.
func (h *Handler) action(w http.ResponseWriter, r *http.Request, fn func(actor string) (any, error)) {
	actor := h.actor(r.Context())

	key, keyed := h.replay.key(r, actor)
	if keyed {
		if res, ok := h.replay.lookup(key); ok {
			w.Header().Set(ReplayedHeader, "true")
			handlers.RespondJSON(w, res.status, res.body)
			return
		}
	}

	result, err := fn(actor)
	if err != nil {
		handlers.RespondError(w, h.logger, versions.MapHTTPStatus(err), err)
		return
	}

	if keyed {
		h.replay.store(key, http.StatusOK, result)
	}
	handlers.RespondJSON(w, http.StatusOK, result)
}
