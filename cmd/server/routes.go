package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JaimeStill/casefile/internal/access"
	"github.com/JaimeStill/casefile/internal/batch"
	"github.com/JaimeStill/casefile/internal/config"
	"github.com/JaimeStill/casefile/internal/downloads"
	"github.com/JaimeStill/casefile/internal/events"
	"github.com/JaimeStill/casefile/internal/infrastructure"
	"github.com/JaimeStill/casefile/internal/verification"
	"github.com/JaimeStill/casefile/internal/versions"
	"github.com/JaimeStill/casefile/pkg/lifecycle"
	"github.com/JaimeStill/casefile/pkg/middleware"
	"github.com/JaimeStill/casefile/pkg/routes"
	"github.com/JaimeStill/casefile/pkg/storage"
	"github.com/JaimeStill/casefile/web/docs"
)

// buildRouter mounts authenticated API routes under the base path and the
// public routes (health checks, metrics, API description, signed blob downloads)
// beside them.
func buildRouter(infra *infrastructure.Infrastructure, domain *Domain, cfg *config.Config) (http.Handler, error) {
	basePath := cfg.Server.BasePath

	api := routes.New(basePath, infra.Logger)
	registerAPIRoutes(api, infra, domain, cfg)

	spec, err := json.Marshal(generateSpec(api, buildComponents(), cfg))
	if err != nil {
		return nil, fmt.Errorf("openapi: %w", err)
	}

	public := routes.New(basePath, infra.Logger)
	registerPublicRoutes(public, infra, spec)

	mux := http.NewServeMux()
	mux.Handle("/", public.Build())
	mux.Handle(basePath+"/", domain.Auth.Middleware()(api.Build()))

	if fs, ok := infra.Storage.(*storage.Filesystem); ok {
		blobs := routes.New(basePath, infra.Logger)
		blobs.RegisterGroup(downloads.NewBlobHandler(fs.Signer(), fs, infra.Logger).Routes())
		mux.Handle(basePath+"/blobs/", blobs.Build())
	}

	return middleware.Chain(mux, buildMiddleware(infra, cfg)...), nil
}

func registerAPIRoutes(r routes.System, infra *infrastructure.Infrastructure, domain *Domain, cfg *config.Config) {
	actor := versions.ActorFunc(access.ActorFrom)

	for _, group := range versions.NewHandler(domain.Machine, cfg.Versions.Policy(), actor, infra.Logger).Routes() {
		r.RegisterGroup(group)
	}

	batchHandler := batch.NewHandler(domain.Batch, cfg.Versions.Policy(), cfg.Batch.MaxFiles, actor, infra.Logger)
	r.RegisterGroup(batchHandler.Routes())

	verificationHandler := verification.NewHandler(domain.Workflow, domain.Replay, actor, infra.Logger)
	r.RegisterGroup(verificationHandler.Routes())

	downloadHandler := downloads.NewHandler(domain.Downloads, infra.Logger)
	r.RegisterGroup(downloadHandler.Routes())

	timelineHandler := events.NewHandler(domain.Timeline, cfg.Pagination, infra.Logger)
	r.RegisterGroup(timelineHandler.Routes())
}

func registerPublicRoutes(r routes.System, infra *infrastructure.Infrastructure, spec []byte) {
	r.RegisterRoute(routes.Route{
		Method:  "GET",
		Pattern: "/healthz",
		Handler: handleHealthCheck,
	})

	r.RegisterRoute(routes.Route{
		Method:  "GET",
		Pattern: "/readyz",
		Handler: func(w http.ResponseWriter, r *http.Request) {
			handleReadinessCheck(w, infra.Lifecycle)
		},
	})

	r.RegisterRoute(routes.Route{
		Method:  "GET",
		Pattern: "/metrics",
		Handler: promhttp.Handler().ServeHTTP,
	})

	for _, route := range docs.NewHandler(spec).Routes() {
		r.RegisterRoute(route)
	}
}

// handleHealthCheck responds with OK status for health monitoring.
func handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func handleReadinessCheck(w http.ResponseWriter, ready lifecycle.ReadinessChecker) {
	if !ready.Ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("NOT READY"))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("READY"))
}
