package main

import (
	"net/http"

	"github.com/JaimeStill/casefile/internal/batch"
	"github.com/JaimeStill/casefile/internal/config"
	"github.com/JaimeStill/casefile/internal/downloads"
	"github.com/JaimeStill/casefile/internal/events"
	"github.com/JaimeStill/casefile/internal/verification"
	"github.com/JaimeStill/casefile/internal/versions"
	"github.com/JaimeStill/casefile/pkg/openapi"
	"github.com/JaimeStill/casefile/pkg/routes"
)

func buildComponents() *openapi.Components {
	components := openapi.NewComponents()
	components.AddSchemas(versions.Spec.Schemas())
	components.AddSchemas(batch.Spec.Schemas())
	components.AddSchemas(verification.Spec.Schemas())
	components.AddSchemas(downloads.Spec.Schemas())
	components.AddSchemas(events.Spec.Schemas())
	return components
}

// generateSpec assembles the API description from the registered route
// table. Group paths are mounted under basePath, matching routes.Build.
func generateSpec(rs routes.System, components *openapi.Components, cfg *config.Config) *openapi.Spec {
	basePath := cfg.Server.BasePath

	spec := &openapi.Spec{
		OpenAPI: openapi.Version,
		Info: &openapi.Info{
			Title:       cfg.OpenAPI.Title,
			Version:     cfg.Version,
			Description: cfg.OpenAPI.Description,
		},
		Servers:    []*openapi.Server{{URL: basePath}},
		Components: components,
		Paths:      make(map[string]*openapi.PathItem),
	}

	for _, group := range rs.Groups() {
		if group.Description != "" {
			spec.Tags = append(spec.Tags, &openapi.Tag{Name: group.Description})
		}
		processGroup(spec, basePath, "", group)
	}

	for _, route := range rs.Routes() {
		if route.OpenAPI == nil {
			continue
		}
		addOperation(spec, route.Pattern, route.Method, route.OpenAPI)
	}

	return spec
}

func processGroup(spec *openapi.Spec, parentPrefix, parentTag string, group routes.Group) {
	prefix := parentPrefix + group.Prefix
	tag := parentTag
	if group.Description != "" {
		tag = group.Description
	}

	for _, route := range group.Routes {
		if route.OpenAPI == nil {
			continue
		}

		op := *route.OpenAPI
		if len(op.Tags) == 0 && tag != "" {
			op.Tags = []string{tag}
		}

		addOperation(spec, prefix+route.Pattern, route.Method, &op)
	}

	for _, child := range group.Children {
		processGroup(spec, prefix, tag, child)
	}
}

func addOperation(spec *openapi.Spec, path, method string, op *openapi.Operation) {
	if spec.Paths[path] == nil {
		spec.Paths[path] = &openapi.PathItem{}
	}

	switch method {
	case http.MethodGet:
		spec.Paths[path].Get = op
	case http.MethodPost:
		spec.Paths[path].Post = op
	case http.MethodPut:
		spec.Paths[path].Put = op
	case http.MethodPatch:
		spec.Paths[path].Patch = op
	case http.MethodDelete:
		spec.Paths[path].Delete = op
	}
}
