// Package decode reads typed values from request bodies and loose maps.
package decode

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrEmptyBody is returned by JSON when the request has no body.
var ErrEmptyBody = errors.New("request body is empty")

// JSON decodes a single JSON object from r.Body, rejecting unknown fields
// and bodies larger than maxBytes.
func JSON[T any](w http.ResponseWriter, r *http.Request, maxBytes int64) (T, error) {
	var result T

	body := http.MaxBytesReader(w, r.Body, maxBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&result); err != nil {
		if errors.Is(err, io.EOF) {
			return result, ErrEmptyBody
		}
		return result, fmt.Errorf("decode body: %w", err)
	}
	if dec.More() {
		return result, fmt.Errorf("decode body: unexpected trailing data")
	}
	return result, nil
}

// FromMap converts a loosely typed map into T through its JSON form.
func FromMap[T any](data map[string]any) (T, error) {
	var result T
	b, err := json.Marshal(data)
	if err != nil {
		return result, err
	}
	err = json.Unmarshal(b, &result)
	return result, err
}
