package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/casefile/internal/access"
	"github.com/JaimeStill/casefile/internal/verification"
	"github.com/JaimeStill/casefile/internal/versions"
	"github.com/JaimeStill/casefile/pkg/logging"
	"github.com/JaimeStill/casefile/pkg/routes"
)

type memBlobs struct {
	mu   sync.Mutex
	keys map[string]int
}

func (b *memBlobs) Store(ctx context.Context, key string, r io.Reader, size int64) error {
	n, err := io.Copy(io.Discard, r)
	b.mu.Lock()
	b.keys[key] = int(n)
	b.mu.Unlock()
	return err
}

func (b *memBlobs) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	delete(b.keys, key)
	b.mu.Unlock()
	return nil
}

func newAPI(t *testing.T) string {
	t.Helper()
	logger := logging.Discard()
	store := versions.NewMemoryStore()
	policy := versions.NewPolicy(1<<20, []string{".txt"}, []string{"text/plain"})
	machine := versions.NewMachine(store, &memBlobs{keys: map[string]int{}}, policy, 5*time.Second, logger)
	workflow := verification.New(machine, store, 5*time.Second, logger)

	actor := versions.ActorFunc(access.ActorFrom)
	sys := routes.New("/api", logger)
	for _, g := range versions.NewHandler(machine, policy, actor, logger).Routes() {
		sys.RegisterGroup(g)
	}
	sys.RegisterGroup(verification.NewHandler(workflow, nil, actor, logger).Routes())

	auth := access.NewAuthenticator(&access.Config{DevRoles: []string{"admin"}}, logger)
	srv := httptest.NewServer(auth.Middleware()(sys.Build()))
	t.Cleanup(srv.Close)
	return srv.URL + "/api"
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFiles(t *testing.T, files map[string]string) []string {
	t.Helper()
	dir := t.TempDir()
	var paths []string
	for name, body := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		paths = append(paths, path)
	}
	return paths
}

func TestCommandPresence(t *testing.T) {
	cmd := newRootCommand()
	for _, name := range []string{"upload", "history", "verify", "reject", "delete", "restore"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := run(t, "history", "--case", "c-1", "--type", "payslip", "--format", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestUpload_PartialBatch(t *testing.T) {
	server := newAPI(t)
	paths := writeFiles(t, map[string]string{
		"march.txt": "gross 1200",
		"april.txt": "gross 1250",
		"notes.exe": "MZ",
	})

	args := append([]string{"upload", "--server", server, "--actor", "agent-7", "--case", "c-1042", "--type", "payslip"}, paths...)
	stdout, stderr, err := run(t, args...)
	require.NoError(t, err)

	assert.Contains(t, stdout, "partial: 2 uploaded, 1 failed")
	assert.Contains(t, stdout, "notes.exe")
	assert.Contains(t, stderr, "100%")

	stdout, _, err = run(t, "history", "--server", server, "--case", "c-1042", "--type", "payslip", "--format", "json")
	require.NoError(t, err)

	var history []versions.Version
	require.NoError(t, json.Unmarshal([]byte(stdout), &history))
	require.Len(t, history, 2)
	assert.Equal(t, 2, history[0].Number)
	assert.Equal(t, "agent-7", history[0].Uploader)
	assert.Equal(t, versions.RetentionSuperseded, history[1].Retention)
}

func TestUpload_AllFailed(t *testing.T) {
	server := newAPI(t)
	paths := writeFiles(t, map[string]string{"a.exe": "MZ"})

	args := append([]string{"upload", "-q", "--server", server, "--case", "c-1", "--type", "payslip"}, paths...)
	stdout, stderr, err := run(t, args...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 1 uploads failed")
	assert.Contains(t, stdout, "failed: 0 uploaded, 1 failed")
	assert.Empty(t, stderr)
}

func TestReviewCommands(t *testing.T) {
	server := newAPI(t)
	paths := writeFiles(t, map[string]string{"scan.txt": "passport"})

	args := append([]string{"upload", "-q", "--server", server, "--case", "c-7", "--type", "passport", "--format", "json"}, paths...)
	stdout, _, err := run(t, args...)
	require.NoError(t, err)

	var report struct {
		Results []struct {
			Version versions.Version `json:"version"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	require.Len(t, report.Results, 1)
	id := report.Results[0].Version.ID.String()

	stdout, _, err = run(t, "reject", id, "--server", server, "--reason", "photo page missing")
	require.NoError(t, err)
	assert.Contains(t, stdout, "rejected (photo page missing)")

	_, _, err = run(t, "verify", id, "--server", server)
	require.Error(t, err)
	assert.ErrorIs(t, err, versions.ErrInvalidState)

	stdout, _, err = run(t, "delete", id, "--server", server)
	require.NoError(t, err)
	assert.Contains(t, stdout, "deleted")

	stdout, _, err = run(t, "restore", id, "--server", server)
	require.NoError(t, err)
	assert.Contains(t, stdout, "active")

	_, _, err = run(t, "verify", "not-a-uuid", "--server", server)
	require.Error(t, err)
}

func TestUpload_MissingPathIsolated(t *testing.T) {
	server := newAPI(t)
	paths := writeFiles(t, map[string]string{
		"a.txt": "first",
		"b.txt": "second",
	})
	gone := filepath.Join(t.TempDir(), "gone.txt")

	args := append([]string{"upload", "-q", "--server", server, "--case", "c-5", "--type", "payslip", gone}, paths...)
	stdout, _, err := run(t, args...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "partial: 2 uploaded, 1 failed")
	assert.Contains(t, stdout, "gone.txt")

	stdout, _, err = run(t, "history", "--server", server, "--case", "c-5", "--type", "payslip", "--format", "json")
	require.NoError(t, err)

	var history []versions.Version
	require.NoError(t, json.Unmarshal([]byte(stdout), &history))
	assert.Len(t, history, 2)
}
