package versions_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JaimeStill/casefile/internal/versions"
)

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: bad", versions.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("%w: x", versions.ErrNotFound), http.StatusNotFound},
		{versions.ErrConflict, http.StatusConflict},
		{versions.ErrInvalidState, http.StatusConflict},
		{versions.ErrPermission, http.StatusForbidden},
		{versions.ErrTimeout, http.StatusGatewayTimeout},
		{versions.ErrCanceled, versions.StatusClientClosedRequest},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, versions.MapHTTPStatus(tt.err))
		})
	}
}

func TestRetryable(t *testing.T) {
	assert.True(t, versions.Retryable(versions.ErrTimeout))
	assert.True(t, versions.Retryable(fmt.Errorf("x: %w", versions.ErrConflict)))
	assert.False(t, versions.Retryable(versions.ErrValidation))
}

func TestConfig_Finalize(t *testing.T) {
	cfg := versions.Config{}
	assert.NoError(t, cfg.Finalize(nil))
	assert.Equal(t, int64(25_000_000), cfg.Policy().MaxSize)
	assert.Contains(t, cfg.Policy().AllowedExtensions, ".pdf")
	assert.Equal(t, versions.StorePostgres, cfg.Store)

	t.Setenv("TEST_VERSIONS_STORE", "memory")
	cfg = versions.Config{}
	assert.NoError(t, cfg.Finalize(&versions.Env{Store: "TEST_VERSIONS_STORE"}))
	assert.Equal(t, versions.StoreMemory, cfg.Store)

	bad := versions.Config{Store: "mongo"}
	assert.Error(t, bad.Finalize(nil))

	badTimeout := versions.Config{OperationTimeout: "soon"}
	assert.Error(t, badTimeout.Finalize(nil))
}

func TestUploadStatus(t *testing.T) {
	assert.Equal(t, http.StatusRequestEntityTooLarge, versions.UploadStatus(versions.ErrRequestTooLarge))
	assert.Equal(t, http.StatusRequestEntityTooLarge, versions.UploadStatus(fmt.Errorf("parse: %w", versions.ErrRequestTooLarge)))
	assert.Equal(t, http.StatusBadRequest, versions.UploadStatus(fmt.Errorf("%w: no file", versions.ErrValidation)))
}
