package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"showcase/modules/middleware/problem"
	"showcase/modules/oapi"
)

func newValidated(t *testing.T, next http.Handler) http.Handler {
	t.Helper()
	mw := OpenAPIValidation(oapi.SpecFS, oapi.ProfileSpecPath, ProblemValidationErrorHandler, ProblemSpecLoadErrorHandler)
	return mw(next)
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) problem.Problem {
	t.Helper()
	assert.Equal(t, problem.ContentType, rec.Header().Get("Content-Type"))
	var p problem.Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	return p
}

func invalidNames(p problem.Problem) []string {
	if p.InvalidParams == nil {
		return nil
	}
	names := make([]string, 0, len(*p.InvalidParams))
	for _, ip := range *p.InvalidParams {
		names = append(names, ip.Name)
	}
	return names
}

const validBody = `{"login":"octocat","name":null,"avatar_url":"https://avatars.githubusercontent.com/u/583231","bio":"hi","followers":1,"following":2,"public_repos":3}`

func TestOpenAPIValidation_CreateProfile(t *testing.T) {
	var reached bool
	var seenBody string
	h := newValidated(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		b, _ := io.ReadAll(r.Body)
		seenBody = string(b)
		w.WriteHeader(http.StatusCreated)
	}))

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantFields []string
	}{
		{name: "valid", body: validBody, wantStatus: http.StatusCreated},
		{
			name:       "missing login",
			body:       `{"avatar_url":"https://x.test/a.png","followers":1,"following":2,"public_repos":3}`,
			wantStatus: http.StatusBadRequest,
			wantFields: []string{"login"},
		},
		{
			name:       "empty login",
			body:       `{"login":"","avatar_url":"https://x.test/a.png","followers":1,"following":2,"public_repos":3}`,
			wantStatus: http.StatusBadRequest,
			wantFields: []string{"login"},
		},
		{
			name:       "negative counter",
			body:       `{"login":"a","avatar_url":"https://x.test/a.png","followers":-1,"following":2,"public_repos":3}`,
			wantStatus: http.StatusBadRequest,
			wantFields: []string{"followers"},
		},
		{
			name:       "counter as string",
			body:       `{"login":"a","avatar_url":"https://x.test/a.png","followers":"1","following":2,"public_repos":3}`,
			wantStatus: http.StatusBadRequest,
			wantFields: []string{"followers"},
		},
		{
			name:       "unknown field",
			body:       `{"login":"a","avatar_url":"https://x.test/a.png","followers":1,"following":2,"public_repos":3,"location":"Earth"}`,
			wantStatus: http.StatusBadRequest,
			wantFields: []string{"location"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached = false
			req := httptest.NewRequest(http.MethodPost, "/api/profile", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus != http.StatusBadRequest {
				assert.True(t, reached)
				assert.JSONEq(t, tt.body, seenBody, "body must still be readable downstream")
				return
			}
			assert.False(t, reached, "invalid requests must not reach the handler")
			p := decodeProblem(t, rec)
			assert.Equal(t, http.StatusBadRequest, p.Status)
			assert.Subset(t, invalidNames(p), tt.wantFields)
		})
	}
}

func TestOpenAPIValidation_Routing(t *testing.T) {
	h := newValidated(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/profiles?limit=0", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, invalidNames(decodeProblem(t, rec)), "limit")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/profiles?limit=5", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOpenAPIValidation_BrokenSpec(t *testing.T) {
	fsys := fstest.MapFS{"broken.yaml": {Data: []byte("openapi: [")}}
	mw := OpenAPIValidation(fsys, "broken.yaml", ProblemValidationErrorHandler, ProblemSpecLoadErrorHandler)

	rec := httptest.NewRecorder()
	mw(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSchemaError_NamesOffendingProperty(t *testing.T) {
	tests := []struct {
		name string
		err  *openapi3.SchemaError
		want ValidationError
	}{
		{
			name: "unknown member",
			err:  &openapi3.SchemaError{SchemaField: "properties", Reason: `property "location" is unsupported`},
			want: ValidationError{Field: "location", Reason: "property is not allowed"},
		},
		{
			name: "additional properties",
			err:  &openapi3.SchemaError{SchemaField: "additionalProperties", Reason: `property "html_url" is unsupported`},
			want: ValidationError{Field: "html_url", Reason: "property is not allowed"},
		},
		{
			name: "missing member",
			err:  &openapi3.SchemaError{SchemaField: "required", Reason: `property "login" is missing`},
			want: ValidationError{Field: "login", Reason: `property "login" is missing`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, schemaError(tt.err))
		})
	}
}

func TestSafeReason(t *testing.T) {
	assert.Equal(t, "invalid value", SafeReason(""))
	assert.Equal(t, "doesn't match schema", SafeReason("request body doesn't match schema: foo"))
	assert.Equal(t, "invalid value", SafeReason("value secret-token is bad"))
}
