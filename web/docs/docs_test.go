package docs_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JaimeStill/casefile/pkg/logging"
	"github.com/JaimeStill/casefile/pkg/routes"
	"github.com/JaimeStill/casefile/web/docs"
)

func TestHandler(t *testing.T) {
	sys := routes.New("/api", logging.Discard())
	for _, r := range docs.NewHandler([]byte(`{"openapi":"3.1.0"}`)).Routes() {
		sys.RegisterRoute(r)
	}
	h := sys.Build()

	tests := []struct {
		path, contentType, body string
	}{
		{"/openapi.json", "application/json; charset=utf-8", `{"openapi":"3.1.0"}`},
		{"/docs", "text/html; charset=utf-8", `data-url="/openapi.json"`},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Body.String(), tt.body)
		})
	}
}
