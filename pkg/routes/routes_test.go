package routes_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JaimeStill/casefile/pkg/logging"
	"github.com/JaimeStill/casefile/pkg/routes"
)

func echo(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(r.Pattern + "|" + r.PathValue("id")))
}

func TestBuild_NestedGroups(t *testing.T) {
	sys := routes.New("/api", logging.Discard())
	sys.RegisterRoute(routes.Route{Method: "GET", Pattern: "/healthz", Handler: echo})
	sys.RegisterGroup(routes.Group{
		Prefix: "/versions",
		Routes: []routes.Route{{Method: "GET", Pattern: "/{id}", Handler: echo}},
		Children: []routes.Group{{
			Prefix: "/{id}/actions",
			Routes: []routes.Route{{Method: "POST", Pattern: "/verify", Handler: echo}},
		}},
	})

	h := sys.Build()

	tests := []struct {
		method, path, body string
		status             int
	}{
		{"GET", "/healthz", "GET /healthz|", http.StatusOK},
		{"GET", "/api/versions/42", "GET /api/versions/{id}|42", http.StatusOK},
		{"POST", "/api/versions/7/actions/verify", "POST /api/versions/{id}/actions/verify|7", http.StatusOK},
		{"DELETE", "/api/versions/42", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}

	assert.Len(t, sys.Groups(), 1)
	assert.Len(t, sys.Routes(), 1)
}
