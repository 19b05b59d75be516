// Package routes provides HTTP route registration and handler building.
package routes

import (
	"net/http"

	"github.com/JaimeStill/casefile/pkg/openapi"
)

// Route binds a method and path pattern to a handler. Routes with a nil
// OpenAPI operation are served but left out of the API description.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
	OpenAPI *openapi.Operation
}

// Group represents a collection of routes under a common URL prefix.
// Groups can contain child groups for hierarchical route organization.
type Group struct {
	Prefix      string
	Description string
	Routes      []Route
	Children    []Group
}
