package downloads

import "github.com/JaimeStill/casefile/pkg/openapi"

type spec struct {
	Link *openapi.Operation
}

var Spec = spec{
	Link: &openapi.Operation{
		Summary:     "Create download link",
		Description: "Issue a short-lived signed URL for the version's content. Responses are not cacheable.",
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Version ID"),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Signed download link", "DownloadLink"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
			409: openapi.ResponseRef("Conflict"),
		},
	},
}

func (spec) Schemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"DownloadLink": {
			Type:     "object",
			Required: []string{"url", "expires_at"},
			Properties: map[string]*openapi.Schema{
				"url":        {Type: "string", Description: "Signed URL"},
				"expires_at": {Type: "string", Format: "date-time"},
			},
		},
	}
}
