package storage_test

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/casefile/pkg/logging"
	"github.com/JaimeStill/casefile/pkg/storage"
)

func newFilesystem(t *testing.T) *storage.Filesystem {
	t.Helper()
	cfg := &storage.Config{BasePath: t.TempDir(), SigningSecret: "test-secret"}
	require.NoError(t, cfg.Finalize(nil))

	fs, err := storage.NewFilesystem(cfg, logging.Discard())
	require.NoError(t, err)
	return fs
}

func TestFilesystem_StoreOpenDelete(t *testing.T) {
	ctx := context.Background()
	fs := newFilesystem(t)

	content := "quarterly statement"
	require.NoError(t, fs.Store(ctx, "cases/c1/a.pdf", strings.NewReader(content), int64(len(content))))

	ok, err := fs.Validate(ctx, "cases/c1/a.pdf")
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := fs.Open(ctx, "cases/c1/a.pdf")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, content, string(data))

	require.NoError(t, fs.Delete(ctx, "cases/c1/a.pdf"))
	require.NoError(t, fs.Delete(ctx, "cases/c1/a.pdf"))

	_, err = fs.Open(ctx, "cases/c1/a.pdf")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFilesystem_StoreShortWrite(t *testing.T) {
	fs := newFilesystem(t)

	err := fs.Store(context.Background(), "a.txt", strings.NewReader("abc"), 10)
	require.Error(t, err)

	ok, err := fs.Validate(context.Background(), "a.txt")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFilesystem_InvalidKeys(t *testing.T) {
	ctx := context.Background()
	fs := newFilesystem(t)

	for _, key := range []string{"", "../escape", "/etc/passwd", "."} {
		t.Run(key, func(t *testing.T) {
			err := fs.Store(ctx, key, strings.NewReader("x"), 1)
			assert.ErrorIs(t, err, storage.ErrInvalidKey)
		})
	}
}

func TestFilesystem_DeleteRemovesEmptyDirectory(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	cfg := &storage.Config{BasePath: base, SigningSecret: "s"}
	require.NoError(t, cfg.Finalize(nil))
	fs, err := storage.NewFilesystem(cfg, logging.Discard())
	require.NoError(t, err)

	require.NoError(t, fs.Store(ctx, "nested/file.txt", strings.NewReader("x"), 1))
	require.NoError(t, fs.Delete(ctx, "nested/file.txt"))

	_, err = os.Stat(filepath.Join(base, "nested"))
	assert.True(t, os.IsNotExist(err))
}

func TestFilesystem_SignURLRoundTrip(t *testing.T) {
	fs := newFilesystem(t)

	link, err := fs.SignURL(context.Background(), "cases/c1/a.pdf", "a.pdf", time.Minute)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(link, "/api/blobs/"))

	token, err := url.PathUnescape(strings.TrimPrefix(link, "/api/blobs/"))
	require.NoError(t, err)

	key, filename, err := fs.Signer().Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "cases/c1/a.pdf", key)
	assert.Equal(t, "a.pdf", filename)
}

func TestSigner_RejectsTamperedAndForeignTokens(t *testing.T) {
	signer := storage.NewSigner("one")
	token, _, err := signer.Sign("k", "", time.Minute)
	require.NoError(t, err)

	_, _, err = storage.NewSigner("two").Verify(token)
	assert.ErrorIs(t, err, storage.ErrInvalidToken)

	_, _, err = signer.Verify(token + "x")
	assert.ErrorIs(t, err, storage.ErrInvalidToken)
}

func TestSigner_Expired(t *testing.T) {
	signer := storage.NewSigner("secret")
	token, _, err := signer.Sign("k", "", time.Nanosecond)
	require.NoError(t, err)

	time.Sleep(1100 * time.Millisecond)
	_, _, err = signer.Verify(token)
	assert.ErrorIs(t, err, storage.ErrInvalidToken)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     storage.Config
		wantErr bool
	}{
		{"filesystem defaults", storage.Config{SigningSecret: "s"}, false},
		{"filesystem missing secret", storage.Config{}, true},
		{"s3 missing bucket", storage.Config{Driver: "s3"}, true},
		{"s3 with bucket", storage.Config{Driver: "s3", S3: storage.S3Config{Bucket: "b"}}, false},
		{"unknown driver", storage.Config{Driver: "ftp"}, true},
		{"bad size", storage.Config{SigningSecret: "s", MaxUploadSize: "lots"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(100*1000*1000), tt.cfg.MaxUploadSizeBytes())
		})
	}
}
