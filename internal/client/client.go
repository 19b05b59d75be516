// Package client is an HTTP client for the casefile API. Client implements
// the batch orchestrator's Uploader, so the same worker pool that serves
// multi-file requests on the server drives uploads from the command line.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/casefile/internal/access"
	"github.com/JaimeStill/casefile/internal/verification"
	"github.com/JaimeStill/casefile/internal/versions"
	"github.com/JaimeStill/casefile/pkg/handlers"
)

// Client calls the API rooted at a base URL such as http://localhost:8080/api.
type Client struct {
	base  string
	http  *http.Client
	token string
	actor string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken sends token as a bearer credential.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithActor names the caller for servers running without authentication.
func WithActor(actor string) Option {
	return func(c *Client) { c.actor = actor }
}

// New creates a client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimSuffix(baseURL, "/"),
		http: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RecordUpload streams cmd.Content as a multipart upload. The server
// assigns the version number; cmd.Uploader is ignored in favor of the
// authenticated principal.
func (c *Client) RecordUpload(ctx context.Context, cmd versions.UploadCommand) (*versions.Version, error) {
	if err := cmd.Slot.Validate(); err != nil {
		return nil, err
	}
	if cmd.Content == nil {
		return nil, fmt.Errorf("%w: content required", versions.ErrValidation)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeUpload(mw, cmd))
	}()

	defer pr.Close()

	req, err := c.request(ctx, http.MethodPost, slotPath(cmd.Slot), pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var v versions.Version
	if err := c.do(req, http.StatusCreated, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func writeUpload(mw *multipart.Writer, cmd versions.UploadCommand) error {
	if cmd.Notes != "" {
		if err := mw.WriteField("notes", cmd.Notes); err != nil {
			return err
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, cmd.File.Filename))
	contentType := cmd.File.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, cmd.Content); err != nil {
		return err
	}
	return mw.Close()
}

// ListHistory returns every version in slot, highest number first.
func (c *Client) ListHistory(ctx context.Context, slot versions.Slot) ([]versions.Version, error) {
	if err := slot.Validate(); err != nil {
		return nil, err
	}
	req, err := c.request(ctx, http.MethodGet, slotPath(slot), nil)
	if err != nil {
		return nil, err
	}

	var history []versions.Version
	if err := c.do(req, http.StatusOK, &history); err != nil {
		return nil, err
	}
	return history, nil
}

// Find returns one version.
func (c *Client) Find(ctx context.Context, id uuid.UUID) (*versions.Version, error) {
	return c.version(ctx, http.MethodGet, "/versions/"+id.String(), nil, "")
}

// Verify marks a version verified.
func (c *Client) Verify(ctx context.Context, id uuid.UUID, key string) (*versions.Version, error) {
	return c.version(ctx, http.MethodPost, "/versions/"+id.String()+"/verify", nil, key)
}

// Reject marks a version rejected with reason.
func (c *Client) Reject(ctx context.Context, id uuid.UUID, reason, key string) (*versions.Version, error) {
	body, err := json.Marshal(verification.RejectRequest{Reason: reason})
	if err != nil {
		return nil, err
	}
	return c.version(ctx, http.MethodPost, "/versions/"+id.String()+"/reject", body, key)
}

// Delete soft-deletes a version.
func (c *Client) Delete(ctx context.Context, id uuid.UUID, key string) (*versions.Version, error) {
	return c.version(ctx, http.MethodDelete, "/versions/"+id.String(), nil, key)
}

// Restore reactivates a superseded or deleted version.
func (c *Client) Restore(ctx context.Context, id uuid.UUID, key string) (*versions.Change, error) {
	req, err := c.request(ctx, http.MethodPost, "/versions/"+id.String()+"/restore", nil)
	if err != nil {
		return nil, err
	}
	setIdempotencyKey(req, key)

	var change versions.Change
	if err := c.do(req, http.StatusOK, &change); err != nil {
		return nil, err
	}
	return &change, nil
}

func (c *Client) version(ctx context.Context, method, path string, body []byte, key string) (*versions.Version, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := c.request(ctx, method, path, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	setIdempotencyKey(req, key)

	var v versions.Version
	if err := c.do(req, http.StatusOK, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *Client) request(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.actor != "" {
		req.Header.Set(access.ActorHeader, c.actor)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, want int, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return versions.ContextError(ctxErr)
		}
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func setIdempotencyKey(req *http.Request, key string) {
	if key != "" {
		req.Header.Set(verification.IdempotencyHeader, key)
	}
}

func slotPath(slot versions.Slot) string {
	return "/cases/" + url.PathEscape(slot.CaseID) + "/documents/" + url.PathEscape(slot.DocumentType) + "/versions"
}

// StatusError is a non-success API response. It unwraps to the domain
// sentinel matching Status so callers can test with errors.Is.
type StatusError struct {
	Status  int
	Message string
	kind    error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (e *StatusError) Unwrap() error {
	return e.kind
}

func decodeError(resp *http.Response) error {
	var body handlers.ErrorResponse
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &body); err != nil || body.Error == "" {
		body.Error = strings.TrimSpace(string(data))
		if body.Error == "" {
			body.Error = http.StatusText(resp.StatusCode)
		}
	}
	return &StatusError{
		Status:  resp.StatusCode,
		Message: body.Error,
		kind:    sentinel(resp.StatusCode, body.Error),
	}
}

func sentinel(status int, message string) error {
	switch status {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnprocessableEntity:
		return versions.ErrValidation
	case http.StatusNotFound:
		return versions.ErrNotFound
	case http.StatusConflict:
		if strings.HasPrefix(message, versions.ErrInvalidState.Error()) {
			return versions.ErrInvalidState
		}
		return versions.ErrConflict
	case http.StatusUnauthorized, http.StatusForbidden:
		return versions.ErrPermission
	case http.StatusGatewayTimeout:
		return versions.ErrTimeout
	case versions.StatusClientClosedRequest:
		return versions.ErrCanceled
	default:
		return errors.New(http.StatusText(status))
	}
}
