package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/casefile/internal/access"
	"github.com/JaimeStill/casefile/internal/config"
	"github.com/JaimeStill/casefile/internal/downloads"
	"github.com/JaimeStill/casefile/internal/infrastructure"
	"github.com/JaimeStill/casefile/internal/versions"
	"github.com/JaimeStill/casefile/pkg/openapi"
	"github.com/JaimeStill/casefile/pkg/pagination"
)

var pngBody = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

func newTestConfig(t *testing.T, auth bool) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Versions.Store = versions.StoreMemory
	cfg.Storage.BasePath = t.TempDir()
	cfg.Storage.SigningSecret = "router-test-secret"
	cfg.Logging.Level = "error"
	if auth {
		cfg.Auth.Enabled = true
		cfg.Auth.Secret = strings.Repeat("k", 32)
	}
	require.NoError(t, cfg.Finalize())
	return cfg
}

func newTestRouter(t *testing.T, cfg *config.Config) (*httptest.Server, *Domain) {
	t.Helper()
	infra, err := infrastructure.New(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, infra.Start())
	infra.Lifecycle.WaitForStartup()
	t.Cleanup(func() { infra.Lifecycle.Shutdown(time.Second) })

	domain, err := NewDomain(infra, cfg)
	require.NoError(t, err)

	handler, err := buildRouter(infra, domain, cfg)
	require.NoError(t, err)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, domain
}

func upload(t *testing.T, srv *httptest.Server, path, actor string) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "scan.png")
	require.NoError(t, err)
	_, err = fw.Write(pngBody)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, srv.URL+path, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if actor != "" {
		req.Header.Set(access.ActorHeader, actor)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func do(t *testing.T, method, url string, header http.Header) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	srv, _ := newTestRouter(t, newTestConfig(t, false))

	for path, want := range map[string]string{"/healthz": "OK", "/readyz": "READY"} {
		resp := do(t, http.MethodGet, srv.URL+path, nil)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Equal(t, want, string(body), path)
	}

	resp := do(t, http.MethodGet, srv.URL+"/metrics", nil)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "casefile_http_requests_total")

	resp = do(t, http.MethodGet, srv.URL+"/openapi.json", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	spec := decode[openapi.Spec](t, resp)
	assert.Contains(t, spec.Paths, "/api/versions/{id}/verify")
	assert.Contains(t, spec.Paths, "/api/cases/{caseId}/timeline")
}

func TestRouter_UploadVerifyDownload(t *testing.T) {
	srv, _ := newTestRouter(t, newTestConfig(t, false))
	actor := http.Header{access.ActorHeader: {"agent-7"}}

	resp := upload(t, srv, "/api/cases/case-1/documents/passport/versions", "agent-7")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	v := decode[versions.Version](t, resp)
	assert.Equal(t, 1, v.Number)
	assert.Equal(t, "agent-7", v.Uploader)
	assert.Equal(t, "image/png", v.ContentType)

	resp = do(t, http.MethodPost, srv.URL+"/api/versions/"+v.ID.String()+"/verify", actor)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	verified := decode[versions.Version](t, resp)
	assert.Equal(t, versions.VerificationVerified, verified.Verification)

	resp = do(t, http.MethodGet, srv.URL+"/api/versions/"+v.ID.String()+"/download", actor)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	link := decode[downloads.Link](t, resp)
	require.True(t, strings.HasPrefix(link.URL, "/api/blobs/"), link.URL)

	resp = do(t, http.MethodGet, srv.URL+link.URL, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	content, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, pngBody, content)

	resp = do(t, http.MethodGet, srv.URL+"/api/cases/case-1/timeline", actor)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[pagination.PageResult[versions.Event]](t, resp)
	require.Equal(t, 2, page.Total)
	assert.Equal(t, versions.EventVerified, page.Data[0].Type)
	assert.Equal(t, versions.EventUploaded, page.Data[1].Type)
}

func TestRouter_Authentication(t *testing.T) {
	cfg := newTestConfig(t, true)
	srv, domain := newTestRouter(t, cfg)

	resp := upload(t, srv, "/api/cases/case-1/documents/passport/versions", "agent-7")
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/healthz", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	token, err := domain.Auth.Issue(access.Principal{ID: "reviewer-1", Roles: []string{"verifier"}}, time.Minute)
	require.NoError(t, err)
	bearer := http.Header{"Authorization": {"Bearer " + token}}

	resp = do(t, http.MethodGet, srv.URL+"/api/cases/case-1/documents/passport/versions", bearer)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history := decode[[]versions.Version](t, resp)
	assert.Empty(t, history)
}
