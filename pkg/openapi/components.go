package openapi

import "maps"

// Components holds reusable schema and response definitions.
type Components struct {
	Schemas   map[string]*Schema   `json:"schemas,omitempty"`
	Responses map[string]*Response `json:"responses,omitempty"`
}

// NewComponents creates components with the shared error schema and the
// standard error responses every handler can reference.
func NewComponents() *Components {
	errorBody := func(description string) *Response {
		return ResponseJSON(description, "Error")
	}
	return &Components{
		Schemas: map[string]*Schema{
			"Error": {
				Type:     "object",
				Required: []string{"error"},
				Properties: map[string]*Schema{
					"error": {Type: "string"},
				},
			},
		},
		Responses: map[string]*Response{
			"BadRequest":     errorBody("Invalid request"),
			"Unauthorized":   errorBody("Missing or invalid bearer token"),
			"Forbidden":      errorBody("Principal lacks the required capability"),
			"NotFound":       errorBody("Resource not found"),
			"Conflict":       errorBody("Stale write or invalid state transition"),
			"TooLarge":       errorBody("Request body too large"),
			"GatewayTimeout": errorBody("Operation timed out; list history to confirm the outcome"),
		},
	}
}

// AddSchemas registers schemas, replacing any with the same name.
func (c *Components) AddSchemas(schemas map[string]*Schema) {
	if c.Schemas == nil {
		c.Schemas = make(map[string]*Schema)
	}
	maps.Copy(c.Schemas, schemas)
}

// AddResponses registers responses, replacing any with the same name.
func (c *Components) AddResponses(responses map[string]*Response) {
	if c.Responses == nil {
		c.Responses = make(map[string]*Response)
	}
	maps.Copy(c.Responses, responses)
}
