package downloads_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/casefile/internal/downloads"
	"github.com/JaimeStill/casefile/internal/versions"
	"github.com/JaimeStill/casefile/pkg/logging"
	"github.com/JaimeStill/casefile/pkg/routes"
	"github.com/JaimeStill/casefile/pkg/storage"
)

type fixture struct {
	machine *versions.Machine
	fs      *storage.Filesystem
	server  http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	scfg := &storage.Config{BasePath: t.TempDir(), SigningSecret: "download-secret"}
	require.NoError(t, scfg.Finalize(nil))
	fs, err := storage.NewFilesystem(scfg, logging.Discard())
	require.NoError(t, err)

	m := versions.NewMachine(versions.NewMemoryStore(), fs, versions.NewPolicy(1<<20, nil, nil), time.Second, logging.Discard())

	dcfg := &downloads.Config{}
	require.NoError(t, dcfg.Finalize(nil))
	svc := downloads.New(m, fs, dcfg, logging.Discard())

	sys := routes.New("/api", logging.Discard())
	sys.RegisterGroup(downloads.NewHandler(svc, logging.Discard()).Routes())
	sys.RegisterGroup(downloads.NewBlobHandler(fs.Signer(), fs, logging.Discard()).Routes())

	return &fixture{machine: m, fs: fs, server: sys.Build()}
}

func (f *fixture) upload(t *testing.T, name, body string) *versions.Version {
	t.Helper()
	v, err := f.machine.RecordUpload(context.Background(), versions.UploadCommand{
		Slot:     versions.Slot{CaseID: "case-1", DocumentType: "passport"},
		File:     versions.FileMeta{Filename: name, ContentType: "application/pdf", SizeBytes: int64(len(body))},
		Uploader: "agent-7",
		Content:  strings.NewReader(body),
	})
	require.NoError(t, err)
	return v
}

func (f *fixture) get(path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestDownload_LinkThenBlob(t *testing.T) {
	f := newFixture(t)
	v := f.upload(t, "passport scan.pdf", "%PDF-1.7 fake")

	rec := f.get("/api/versions/" + v.ID.String() + "/download")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var link downloads.Link
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&link))
	assert.True(t, strings.HasPrefix(link.URL, "/api/blobs/"))
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), link.ExpiresAt, 5*time.Second)

	blob := f.get(link.URL)
	require.Equal(t, http.StatusOK, blob.Code, blob.Body.String())
	assert.Equal(t, "%PDF-1.7 fake", blob.Body.String())
	assert.Equal(t, "application/pdf", blob.Header().Get("Content-Type"))
	assert.Contains(t, blob.Header().Get("Content-Disposition"), "passport scan.pdf")
}

func TestDownload_Rejections(t *testing.T) {
	f := newFixture(t)
	v := f.upload(t, "a.pdf", "x")

	assert.Equal(t, http.StatusNotFound, f.get("/api/versions/"+uuid.NewString()+"/download").Code)
	assert.Equal(t, http.StatusBadRequest, f.get("/api/versions/nope/download").Code)
	assert.Equal(t, http.StatusForbidden, f.get("/api/blobs/not-a-token").Code)

	token, _, err := f.fs.Signer().Sign("cases/missing/a.pdf", "a.pdf", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, f.get("/api/blobs/"+token).Code)

	_, err = f.machine.Delete(context.Background(), v.ID, "agent-7")
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, f.get("/api/versions/"+v.ID.String()+"/download").Code)
}

type countingSigner struct {
	calls atomic.Int32
}

func (s *countingSigner) SignURL(ctx context.Context, key, filename string, ttl time.Duration) (string, error) {
	n := s.calls.Add(1)
	return "https://blobs.example/" + key + "?n=" + strconv.Itoa(int(n)), nil
}

type staticFinder struct{ v versions.Version }

func (f staticFinder) Find(ctx context.Context, id uuid.UUID) (*versions.Version, error) {
	if id != f.v.ID {
		return nil, versions.ErrNotFound
	}
	v := f.v
	return &v, nil
}

func TestService_CachesLinks(t *testing.T) {
	v := versions.Version{ID: uuid.New(), StorageKey: "cases/c/d/a.pdf", Filename: "a.pdf", Retention: versions.RetentionSuperseded}
	signer := &countingSigner{}

	cfg := &downloads.Config{LinkTTL: "10m"}
	require.NoError(t, cfg.Finalize(nil))
	svc := downloads.New(staticFinder{v}, signer, cfg, logging.Discard())

	first, err := svc.Link(context.Background(), v.ID)
	require.NoError(t, err)
	second, err := svc.Link(context.Background(), v.ID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), signer.calls.Load())
}

func TestConfig_Finalize(t *testing.T) {
	cfg := &downloads.Config{}
	require.NoError(t, cfg.Finalize(nil))
	assert.Equal(t, 15*time.Minute, cfg.LinkTTLDuration())
	assert.Equal(t, 10*time.Minute, cfg.IdempotencyTTLDuration())

	bad := &downloads.Config{LinkTTL: "100ms"}
	assert.Error(t, bad.Finalize(nil))
}

