package main

import (
	"github.com/JaimeStill/casefile/internal/config"
	"github.com/JaimeStill/casefile/internal/infrastructure"
	"github.com/JaimeStill/casefile/pkg/middleware"
)

// buildMiddleware returns the outer middleware stack, outermost first.
func buildMiddleware(infra *infrastructure.Infrastructure, cfg *config.Config) []middleware.Middleware {
	return []middleware.Middleware{
		middleware.TrimSlash(),
		middleware.Logger(infra.Logger),
		middleware.Metrics(),
		middleware.CORS(&cfg.CORS),
	}
}
