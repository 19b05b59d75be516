package versions_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/casefile/internal/versions"
	"github.com/JaimeStill/casefile/pkg/logging"
	"github.com/JaimeStill/casefile/pkg/routes"
)

func newServer(t *testing.T) http.Handler {
	t.Helper()
	m, _ := newMachine(t, versions.NewMemoryStore())
	h := versions.NewHandler(m, m.Policy(), func(context.Context) string { return "agent-7" }, logging.Discard())

	sys := routes.New("/api", logging.Discard())
	for _, g := range h.Routes() {
		sys.RegisterGroup(g)
	}
	return sys.Build()
}

func multipartBody(t *testing.T, field, filename, contentType string, content []byte, notes string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if filename != "" {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
		header.Set("Content-Type", contentType)
		part, err := w.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	if notes != "" {
		require.NoError(t, w.WriteField("notes", notes))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestHandler_UploadAndHistory(t *testing.T) {
	srv := newServer(t)

	for i, body := range []string{"first scan", "second scan"} {
		buf, ct := multipartBody(t, "file", "scan.txt", "text/plain", []byte(body), "rescanned")
		req := httptest.NewRequest(http.MethodPost, "/api/cases/case-1/documents/passport/versions", buf)
		req.Header.Set("Content-Type", ct)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var v versions.Version
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
		assert.Equal(t, i+1, v.Number)
		assert.Equal(t, "agent-7", v.Uploader)
		assert.Equal(t, "rescanned", v.Notes)
		assert.Equal(t, versions.RetentionActive, v.Retention)
	}

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cases/case-1/documents/passport/versions", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var history []versions.Version
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&history))
	require.Len(t, history, 2)
	assert.Equal(t, 2, history[0].Number)
	assert.Equal(t, versions.RetentionSuperseded, history[1].Retention)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/versions/"+history[0].ID.String(), nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_UploadRejections(t *testing.T) {
	srv := newServer(t)

	tests := []struct {
		name     string
		path     string
		field    string
		filename string
		ct       string
		content  []byte
		status   int
	}{
		{"disallowed type", "/api/cases/case-1/documents/passport/versions", "file", "a.exe", "application/x-msdownload", []byte("MZ"), http.StatusBadRequest},
		{"empty file", "/api/cases/case-1/documents/passport/versions", "file", "a.txt", "text/plain", nil, http.StatusBadRequest},
		{"missing file field", "/api/cases/case-1/documents/passport/versions", "other", "a.txt", "text/plain", []byte("x"), http.StatusBadRequest},
		{"oversized body", "/api/cases/case-1/documents/passport/versions", "file", "a.txt", "text/plain", bytes.Repeat([]byte("a"), 2<<20), http.StatusRequestEntityTooLarge},
		{"invalid slot", "/api/cases/..bad/documents/passport/versions", "file", "a.txt", "text/plain", []byte("x"), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, ct := multipartBody(t, tt.field, tt.filename, tt.ct, tt.content, "")
			req := httptest.NewRequest(http.MethodPost, tt.path, buf)
			req.Header.Set("Content-Type", ct)
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestHandler_RequiresMultipart(t *testing.T) {
	srv := newServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/cases/case-1/documents/passport/versions", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Find(t *testing.T) {
	srv := newServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/versions/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/versions/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
