package batch

import (
	"github.com/JaimeStill/casefile/internal/versions"
	"github.com/JaimeStill/casefile/pkg/openapi"
)

type spec struct {
	Upload *openapi.Operation
}

var Spec = spec{
	Upload: &openapi.Operation{
		Summary:     "Upload batch",
		Description: "Upload several files into one slot. Each file becomes its own version in submission order and fails independently.",
		Parameters:  versions.SlotParams(),
		RequestBody: openapi.RequestBodyMultipart(map[string]*openapi.Schema{
			"files": {Type: "array", Items: openapi.Binary("Document file"), Description: "Files to upload, one part per file"},
			"notes": {Type: "string", Description: "Notes applied to every version in the batch"},
		}, "files"),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Batch completed or partially completed", "BatchReport"),
			400: openapi.ResponseRef("BadRequest"),
			413: openapi.ResponseRef("TooLarge"),
			422: openapi.ResponseJSON("Every file in the batch failed", "BatchReport"),
		},
	},
}

func (spec) Schemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"BatchResult": {
			Type:     "object",
			Required: []string{"index", "filename", "status"},
			Properties: map[string]*openapi.Schema{
				"index":    {Type: "integer", Description: "Position in the submitted batch"},
				"filename": {Type: "string"},
				"status":   {Type: "string", Enum: []string{"fulfilled", "rejected"}},
				"version":  openapi.SchemaRef("Version"),
				"reason":   {Type: "string", Description: "Failure reason for rejected files"},
			},
		},
		"BatchReport": {
			Type:     "object",
			Required: []string{"outcome", "succeeded", "failed", "results"},
			Properties: map[string]*openapi.Schema{
				"outcome":   {Type: "string", Enum: []string{string(OutcomeCompleted), string(OutcomePartial), string(OutcomeFailed)}},
				"succeeded": {Type: "integer"},
				"failed":    {Type: "integer"},
				"results":   {Type: "array", Items: openapi.SchemaRef("BatchResult")},
			},
		},
	}
}
