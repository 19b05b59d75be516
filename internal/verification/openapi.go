package verification

import "github.com/JaimeStill/casefile/pkg/openapi"

type spec struct {
	Delete  *openapi.Operation
	Restore *openapi.Operation
	Verify  *openapi.Operation
	Reject  *openapi.Operation
}

func actionParams() []*openapi.Parameter {
	return []*openapi.Parameter{
		openapi.PathParam("id", "Version ID"),
		openapi.HeaderParam(IdempotencyHeader, "Retry key; a repeated key returns the first successful response with "+ReplayedHeader+": true"),
	}
}

func actionResponses(success *openapi.Response) map[int]*openapi.Response {
	return map[int]*openapi.Response{
		200: success,
		400: openapi.ResponseRef("BadRequest"),
		403: openapi.ResponseRef("Forbidden"),
		404: openapi.ResponseRef("NotFound"),
		409: openapi.ResponseRef("Conflict"),
	}
}

var Spec = spec{
	Delete: &openapi.Operation{
		Summary:     "Delete version",
		Description: "Soft-delete a version. Deleting the active version leaves the slot without one until a restore or upload.",
		Parameters:  actionParams(),
		Responses:   actionResponses(openapi.ResponseJSON("Deleted version", "Version")),
	},
	Restore: &openapi.Operation{
		Summary:     "Restore version",
		Description: "Make a superseded or deleted version active again, superseding the current active version",
		Parameters:  actionParams(),
		Responses:   actionResponses(openapi.ResponseJSON("Restored version and the version it superseded", "Change")),
	},
	Verify: &openapi.Operation{
		Summary:     "Verify version",
		Description: "Mark the active version as verified",
		Parameters:  actionParams(),
		Responses:   actionResponses(openapi.ResponseJSON("Verified version", "Version")),
	},
	Reject: &openapi.Operation{
		Summary:     "Reject version",
		Description: "Mark the active version as rejected with a reason",
		Parameters:  actionParams(),
		RequestBody: openapi.RequestBodyJSON("RejectRequest", true),
		Responses:   actionResponses(openapi.ResponseJSON("Rejected version", "Version")),
	},
}

func (spec) Schemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"RejectRequest": {
			Type:     "object",
			Required: []string{"reason"},
			Properties: map[string]*openapi.Schema{
				"reason": {Type: "string", Description: "Why the document was rejected"},
			},
		},
	}
}
