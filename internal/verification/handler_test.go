package verification_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/casefile/internal/verification"
	"github.com/JaimeStill/casefile/internal/versions"
	"github.com/JaimeStill/casefile/pkg/logging"
	"github.com/JaimeStill/casefile/pkg/routes"
)

func newServer(t *testing.T, f *fixture, replay *verification.Replay) http.Handler {
	t.Helper()
	actor := func(context.Context) string { return "reviewer-1" }
	h := verification.NewHandler(f.workflow, replay, actor, logging.Discard())

	sys := routes.New("/api", logging.Discard())
	sys.RegisterGroup(h.Routes())
	return sys.Build()
}

func do(srv http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHandler_VerifyAndReject(t *testing.T) {
	f := newFixture(t, versions.NewMemoryStore())
	srv := newServer(t, f, nil)

	v1 := f.upload(t, "a.txt", "x")
	v2 := f.upload(t, "b.txt", "y")

	rec := do(srv, http.MethodPost, "/api/versions/"+v1.ID.String()+"/verify", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got versions.Version
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, versions.VerificationVerified, got.Verification)

	rec = do(srv, http.MethodPost, "/api/versions/"+v1.ID.String()+"/verify", "", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(srv, http.MethodPost, "/api/versions/"+v2.ID.String()+"/reject", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(srv, http.MethodPost, "/api/versions/"+v2.ID.String()+"/reject", `{"reason":"expired"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, versions.VerificationRejected, got.Verification)
	assert.Equal(t, "expired", got.RejectionReason)

	rec = do(srv, http.MethodPost, "/api/versions/not-a-uuid/verify", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_DeleteAndRestore(t *testing.T) {
	f := newFixture(t, versions.NewMemoryStore())
	srv := newServer(t, f, nil)

	v1 := f.upload(t, "a.txt", "x")
	v2 := f.upload(t, "b.txt", "y")

	rec := do(srv, http.MethodDelete, "/api/versions/"+v2.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(srv, http.MethodDelete, "/api/versions/"+v2.ID.String(), "", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(srv, http.MethodPost, "/api/versions/"+v1.ID.String()+"/restore", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var change versions.Change
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&change))
	assert.Equal(t, versions.RetentionActive, change.Version.Retention)
	assert.Equal(t, v1.ID, change.Version.ID)
}

func TestHandler_IdempotentDelete(t *testing.T) {
	f := newFixture(t, versions.NewMemoryStore())
	replay := verification.NewReplay(16, time.Minute)
	srv := newServer(t, f, replay)

	v := f.upload(t, "a.txt", "x")
	path := "/api/versions/" + v.ID.String()
	key := map[string]string{verification.IdempotencyHeader: "retry-1"}

	first := do(srv, http.MethodDelete, path, "", key)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Empty(t, first.Header().Get(verification.ReplayedHeader))

	second := do(srv, http.MethodDelete, path, "", key)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "true", second.Header().Get(verification.ReplayedHeader))
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	other := do(srv, http.MethodDelete, path, "", map[string]string{verification.IdempotencyHeader: "retry-2"})
	assert.Equal(t, http.StatusConflict, other.Code)

	assert.Equal(t, 1, replay.Len())
	assert.Len(t, f.events.types(), 2, "one upload and one delete event")
}
