package versions

import "github.com/JaimeStill/casefile/pkg/openapi"

type spec struct {
	History *openapi.Operation
	Upload  *openapi.Operation
	Find    *openapi.Operation
}

// SlotParams describes the caseId and documentType path segments shared by
// every slot-scoped route.
func SlotParams() []*openapi.Parameter {
	return []*openapi.Parameter{
		openapi.SegmentParam("caseId", "Case identifier", slotSegment.String()),
		openapi.SegmentParam("documentType", "Document type within the case", slotSegment.String()),
	}
}

var Spec = spec{
	History: &openapi.Operation{
		Summary:     "List slot history",
		Description: "List every non-deleted version in the slot, newest first",
		Parameters:  SlotParams(),
		Responses: map[int]*openapi.Response{
			200: {
				Description: "Version history",
				Content: map[string]*openapi.MediaType{
					"application/json": {Schema: &openapi.Schema{Type: "array", Items: openapi.SchemaRef("Version")}},
				},
			},
			400: openapi.ResponseRef("BadRequest"),
			403: openapi.ResponseRef("Forbidden"),
		},
	},
	Upload: &openapi.Operation{
		Summary:     "Upload version",
		Description: "Upload a file as the next version in the slot. The previous active version is superseded. PDFs have page count extracted automatically.",
		Parameters:  SlotParams(),
		RequestBody: openapi.RequestBodyMultipart(map[string]*openapi.Schema{
			"file":  openapi.Binary("Document file to upload"),
			"notes": {Type: "string", Description: "Optional uploader notes"},
		}, "file"),
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseJSON("Version uploaded", "Version"),
			400: openapi.ResponseRef("BadRequest"),
			403: openapi.ResponseRef("Forbidden"),
			409: openapi.ResponseRef("Conflict"),
			413: openapi.ResponseRef("TooLarge"),
			504: openapi.ResponseRef("GatewayTimeout"),
		},
	},
	Find: &openapi.Operation{
		Summary:     "Find version",
		Description: "Find a version by ID in any retention state",
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Version ID"),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Version details", "Version"),
			403: openapi.ResponseRef("Forbidden"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
}

func (spec) Schemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"Slot": {
			Type:     "object",
			Required: []string{"case_id", "document_type"},
			Properties: map[string]*openapi.Schema{
				"case_id":       {Type: "string"},
				"document_type": {Type: "string"},
			},
		},
		"Version": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":               {Type: "string", Format: "uuid"},
				"slot":             openapi.SchemaRef("Slot"),
				"version_number":   {Type: "integer", Description: "Position in the slot, starting at 1"},
				"filename":         {Type: "string", Description: "Original filename"},
				"content_type":     {Type: "string", Description: "MIME type"},
				"extension":        {Type: "string", Description: "Lowercase extension without the dot"},
				"size_bytes":       {Type: "integer", Format: "int64", Description: "File size in bytes"},
				"page_count":       {Type: "integer", Description: "Page count (PDFs only)"},
				"uploader":         {Type: "string"},
				"notes":            {Type: "string"},
				"retention":        {Type: "string", Enum: []string{string(RetentionActive), string(RetentionSuperseded), string(RetentionDeleted)}},
				"verification":     {Type: "string", Enum: []string{string(VerificationPending), string(VerificationVerified), string(VerificationRejected)}},
				"rejection_reason": {Type: "string"},
				"created_at":       {Type: "string", Format: "date-time"},
				"updated_at":       {Type: "string", Format: "date-time"},
			},
		},
		"Change": {
			Type:     "object",
			Required: []string{"version"},
			Properties: map[string]*openapi.Schema{
				"version":    openapi.SchemaRef("Version"),
				"superseded": openapi.SchemaRef("Version"),
			},
		},
		"Event": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":         {Type: "string", Format: "uuid"},
				"event_type": {Type: "string", Enum: []string{string(EventUploaded), string(EventVerified), string(EventRejected), string(EventDeleted), string(EventRestored)}},
				"version_id": {Type: "string", Format: "uuid"},
				"slot":       openapi.SchemaRef("Slot"),
				"actor":      {Type: "string"},
				"timestamp":  {Type: "string", Format: "date-time"},
				"from":       {Type: "string", Description: "Prior state, empty for uploads"},
				"to":         {Type: "string", Description: "Resulting state"},
				"metadata":   {Type: "object"},
			},
		},
	}
}
