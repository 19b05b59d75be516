package events

import (
	"github.com/JaimeStill/casefile/internal/versions"
	"github.com/JaimeStill/casefile/pkg/openapi"
)

type spec struct {
	List *openapi.Operation
}

var Spec = spec{
	List: &openapi.Operation{
		Summary:     "List case timeline",
		Description: "List version lifecycle events for a case, newest first, with optional filters",
		Parameters: []*openapi.Parameter{
			versions.SlotParams()[0],
			openapi.QueryParam("document_type", "string", "Filter by document type", false),
			openapi.QueryParam("version_id", "string", "Filter by version ID", false),
			openapi.QueryParam("page", "integer", "Page number", false),
			openapi.QueryParam("page_size", "integer", "Items per page", false),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Timeline page", "EventPageResult"),
			400: openapi.ResponseRef("BadRequest"),
			403: openapi.ResponseRef("Forbidden"),
		},
	},
}

func (spec) Schemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"EventPageResult": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"data":        {Type: "array", Items: openapi.SchemaRef("Event")},
				"total":       {Type: "integer"},
				"page":        {Type: "integer"},
				"page_size":   {Type: "integer"},
				"total_pages": {Type: "integer"},
			},
		},
	}
}
