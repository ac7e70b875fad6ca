package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"showcase/core/profile/domain"
	"showcase/modules/clock"
	"showcase/modules/hmac"
	"showcase/modules/middleware"
	"showcase/modules/middleware/problem"
	"showcase/modules/oapi"
)

const octocatBody = `{
	"login": "octocat",
	"name": "The Octocat",
	"avatar_url": "https://avatars.githubusercontent.com/u/583231?v=4",
	"bio": null,
	"followers": 3938,
	"following": 9,
	"public_repos": 8
}`

type testServer struct {
	store   *memoryStore
	handler http.Handler
}

// newTestServer mounts the profile routes behind the OpenAPI validation middleware,
// the way the server assembles them.
func newTestServer(t *testing.T, health fakeHealth) *testServer {
	t.Helper()

	store := &memoryStore{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	signer, err := hmac.NewHMACSigner([]byte("test-secret"))
	require.NoError(t, err)

	app := domain.NewApp(store, store, signer,
		domain.WithClock(clock.Func(func() time.Time { return store.now })))

	mux := http.NewServeMux()
	NewProfileAPI(app, health).RegisterRoutes(mux)

	validate := middleware.OpenAPIValidation(oapi.SpecFS, oapi.ProfileSpecPath,
		middleware.ProblemValidationErrorHandler, middleware.ProblemSpecLoadErrorHandler)

	return &testServer{store: store, handler: validate(mux)}
}

func (s *testServer) do(t *testing.T, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) *problem.Problem {
	t.Helper()
	assert.Equal(t, problem.ContentType, rec.Header().Get("Content-Type"))
	var p problem.Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	return &p
}

func invalidParamNames(p *problem.Problem) []string {
	if p.InvalidParams == nil {
		return nil
	}
	names := make([]string, 0, len(*p.InvalidParams))
	for _, ip := range *p.InvalidParams {
		names = append(names, ip.Name)
	}
	return names
}

func TestCreateProfile_ReturnsPersistedRow(t *testing.T) {
	s := newTestServer(t, fakeHealth{})

	rec := s.do(t, http.MethodPost, "/api/profile", octocatBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "/api/profile/octocat", rec.Header().Get("Location"))

	var env ProfileEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.NotEmpty(t, env.Data.ID)
	assert.Equal(t, "octocat", env.Data.Login)
	require.NotNil(t, env.Data.Name)
	assert.Equal(t, "The Octocat", *env.Data.Name)
	assert.Nil(t, env.Data.Bio)
	assert.Equal(t, int64(3938), env.Data.Followers)
	assert.False(t, env.Data.CreatedAt.IsZero())
}

func TestCreateProfile_SecondSaveConflicts(t *testing.T) {
	s := newTestServer(t, fakeHealth{})

	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/profile", octocatBody).Code)

	rec := s.do(t, http.MethodPost, "/api/profile", octocatBody)
	require.Equal(t, http.StatusConflict, rec.Code)
	p := decodeProblem(t, rec)
	assert.Equal(t, "profile with this login already exists", p.DetailOr(""))
	require.NotNil(t, p.Code)
	assert.Equal(t, CodeProfileExists, *p.Code)
	assert.Equal(t, []string{"login"}, invalidParamNames(p))
	assert.Equal(t, 2, s.store.inserts)
}

func TestCreateProfile_RejectedBeforeStore(t *testing.T) {
	cases := map[string]struct {
		body  string
		field string
	}{
		"missing login": {
			body:  `{"avatar_url":"https://a.example/x.png","followers":1,"following":1,"public_repos":1}`,
			field: "login",
		},
		"missing counter": {
			body:  `{"login":"octocat","avatar_url":"https://a.example/x.png","followers":1,"following":1}`,
			field: "public_repos",
		},
		"negative counter": {
			body:  `{"login":"octocat","avatar_url":"https://a.example/x.png","followers":-1,"following":1,"public_repos":1}`,
			field: "followers",
		},
		"unknown field": {
			body:  `{"login":"octocat","avatar_url":"https://a.example/x.png","followers":1,"following":1,"public_repos":1,"admin":true}`,
			field: "admin",
		},
		"relative avatar url": {
			body:  `{"login":"octocat","avatar_url":"/x.png","followers":1,"following":1,"public_repos":1}`,
			field: "avatar_url",
		},
		"blank login": {
			body:  `{"login":"   ","avatar_url":"https://a.example/x.png","followers":1,"following":1,"public_repos":1}`,
			field: "login",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			s := newTestServer(t, fakeHealth{})

			rec := s.do(t, http.MethodPost, "/api/profile", tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Contains(t, invalidParamNames(decodeProblem(t, rec)), tc.field)
			assert.Zero(t, s.store.inserts)
		})
	}
}

func TestCreateProfile_HandlerRejectsMissingFieldsWithoutMiddleware(t *testing.T) {
	store := &memoryStore{}
	signer, err := hmac.NewRandomHMACSigner()
	require.NoError(t, err)
	api := NewProfileAPI(domain.NewApp(store, store, signer), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/profile", strings.NewReader(`{"login":"octocat"}`))
	rec := httptest.NewRecorder()
	api.CreateProfile(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.ElementsMatch(t,
		[]string{"avatar_url", "followers", "following", "public_repos"},
		invalidParamNames(decodeProblem(t, rec)))
	assert.Zero(t, store.inserts)
}

func TestCreateProfile_StoreErrorsMapToStatus(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		detail string
	}{
		{"store failure", &domain.ConstraintError{Kind: domain.ErrStoreFailure, Cause: errors.New("57014")}, http.StatusInternalServerError, "database operation failed"},
		{"invalid reference", &domain.ConstraintError{Kind: domain.ErrInvalidReference, Cause: errors.New("23503")}, http.StatusBadRequest, "invalid relation reference"},
		{"check violation", &domain.ConstraintError{Kind: domain.ErrInvalidData, Cause: errors.New("23514")}, http.StatusBadRequest, domain.ErrInvalidData.Error()},
		{"no row returned", domain.ErrProfileNotFound, http.StatusBadRequest, "record not found"},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError, "unexpected error occurred"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t, fakeHealth{})
			s.store.writeErr = tc.err

			rec := s.do(t, http.MethodPost, "/api/profile", octocatBody)
			require.Equal(t, tc.status, rec.Code)
			p := decodeProblem(t, rec)
			assert.Equal(t, tc.detail, p.DetailOr(""))
			require.NotNil(t, p.Instance)
			assert.Equal(t, "/api/profile", *p.Instance)
		})
	}
}

func TestGetProfile(t *testing.T) {
	s := newTestServer(t, fakeHealth{})
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/profile", octocatBody).Code)

	rec := s.do(t, http.MethodGet, "/api/profile/octocat", "")
	require.Equal(t, http.StatusOK, rec.Code)
	tag := rec.Header().Get("ETag")
	assert.NotEmpty(t, tag)

	var env ProfileEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "octocat", env.Data.Login)

	rec = s.do(t, http.MethodGet, "/api/profile/octocat", "", "If-None-Match", tag)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/profile/ghost", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "record not found", decodeProblem(t, rec).DetailOr(""))
}

func TestListProfiles_PagesNewestFirst(t *testing.T) {
	s := newTestServer(t, fakeHealth{})
	for _, login := range []string{"a", "b", "c"} {
		body := strings.Replace(octocatBody, `"octocat"`, `"`+login+`"`, 1)
		require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/profile", body).Code)
	}

	rec := s.do(t, http.MethodGet, "/api/profiles?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var page ProfileList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Data, 2)
	assert.Equal(t, "c", page.Data[0].Login)
	assert.Equal(t, "b", page.Data[1].Login)
	assert.Equal(t, 2, page.Meta.Limit)
	require.NotNil(t, page.Meta.NextCursor)

	rec = s.do(t, http.MethodGet, "/api/profiles?limit=2&after="+*page.Meta.NextCursor, "")
	require.Equal(t, http.StatusOK, rec.Code)
	page = ProfileList{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Data, 1)
	assert.Equal(t, "a", page.Data[0].Login)
	assert.Nil(t, page.Meta.NextCursor)
}

func TestListProfiles_RejectsBadInput(t *testing.T) {
	s := newTestServer(t, fakeHealth{})

	rec := s.do(t, http.MethodGet, "/api/profiles?after=not-a-cursor", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, invalidParamNames(decodeProblem(t, rec)), "after")

	rec = s.do(t, http.MethodGet, "/api/profiles?limit=500", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, invalidParamNames(decodeProblem(t, rec)), "limit")
}

func TestHealthz(t *testing.T) {
	rec := newTestServer(t, fakeHealth{}).do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = newTestServer(t, fakeHealth{err: errors.New("down")}).do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "database unavailable", decodeProblem(t, rec).DetailOr(""))
}

func TestProblemFromDomainError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{&domain.InvalidFieldsError{Fields: []domain.FieldError{{Name: "login", Reason: "is required"}}}, http.StatusBadRequest, CodeValidationFailed},
		{domain.ErrProfileNotFound, http.StatusNotFound, CodeProfileNotFound},
		{domain.ErrInvalidCursor, http.StatusBadRequest, CodeInvalidCursor},
		{domain.ErrDuplicateProfile, http.StatusConflict, CodeProfileExists},
		{domain.ErrStoreFailure, http.StatusInternalServerError, CodeStoreFailure},
		{domain.ErrUnhandled, http.StatusInternalServerError, CodeUnhandled},
		{errors.New("x"), http.StatusInternalServerError, CodeUnhandled},
	}
	for _, tc := range cases {
		prob := ProblemFromDomainError(tc.err)
		assert.Equal(t, tc.status, prob.Status, tc.err.Error())
		require.NotNil(t, prob.Code)
		assert.Equal(t, tc.code, *prob.Code, tc.err.Error())
	}
}
