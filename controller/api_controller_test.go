package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/FlorianRuen/skillsync/config"
	"github.com/FlorianRuen/skillsync/model"
	"github.com/FlorianRuen/skillsync/service"
	"github.com/FlorianRuen/skillsync/store"
	"github.com/gin-gonic/gin"
	"github.com/google/go-github/v66/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSyncService struct {
	profiles service.ProfileService
	err      error
	username string
}

func (s *stubSyncService) SyncUser(ctx context.Context, userID, username string) (service.AnalysisResult, error) {
	s.username = username
	if s.err != nil {
		return service.AnalysisResult{}, s.err
	}

	repos := []model.RepositoryRecord{{
		ID:        1,
		Name:      "api",
		Language:  github.String("Go"),
		Languages: map[string]int{"Go": 1000},
	}}
	return s.profiles.AnalyzeAndStore(ctx, userID, repos, model.ContributionSummary{})
}

func (s *stubSyncService) SyncAll(_ context.Context, mode model.BatchMode) (service.BatchReport, error) {
	return service.BatchReport{Mode: mode}, nil
}

func setupRouter(t *testing.T, syncErr error) (*gin.Engine, *stubSyncService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cfg := *config.GetDefault()
	profiles := service.NewProfileService(cfg, st)
	syncer := &stubSyncService{profiles: profiles, err: syncErr}

	router := gin.New()
	RegisterRoutes(router, NewAPIController(cfg, syncer, profiles))
	return router, syncer
}

func perform(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	router, _ := setupRouter(t, nil)

	w := perform(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestSyncThenReadProfile(t *testing.T) {
	router, syncer := setupRouter(t, nil)

	w := perform(router, http.MethodPost, "/users/user-1/sync", `{"username":"https://github.com/octocat"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "octocat", syncer.username)

	var result service.AnalysisResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, []string{"go"}, result.Profile.Skills)

	w = perform(router, http.MethodGet, "/users/user-1/profile", "")
	require.Equal(t, http.StatusOK, w.Code)

	var profile model.KnowledgeProfile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, "user-1", profile.UserID)
	assert.Equal(t, []string{"go"}, profile.Skills)

	w = perform(router, http.MethodGet, "/users/user-1/proficiencies", "")
	require.Equal(t, http.StatusOK, w.Code)

	var records []model.ProficiencyRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, model.TierBeginner, records[0].Tier)

	w = perform(router, http.MethodPatch, "/users/user-1/proficiencies/go", `{"tier":"intermediate","notes":"daily use"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated model.ProficiencyRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, model.TierIntermediate, updated.Tier)
	assert.Equal(t, "daily use", updated.Notes)
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name         string
		syncErr      error
		method       string
		path         string
		body         string
		expectedCode int
		expectedErr  string
	}{
		{
			name:         "Missing username",
			method:       http.MethodPost,
			path:         "/users/user-1/sync",
			body:         `{}`,
			expectedCode: http.StatusBadRequest,
			expectedErr:  "INVALID_INPUT",
		},
		{
			name:         "Unknown github account",
			syncErr:      model.ErrNotFound,
			method:       http.MethodPost,
			path:         "/users/user-1/sync",
			body:         `{"username":"ghost"}`,
			expectedCode: http.StatusNotFound,
			expectedErr:  "NOT_FOUND",
		},
		{
			name:         "Github rate limit",
			syncErr:      model.ErrRateLimitReached,
			method:       http.MethodPost,
			path:         "/users/user-1/sync",
			body:         `{"username":"octocat"}`,
			expectedCode: http.StatusTooManyRequests,
			expectedErr:  "RATE_LIMIT_REACHED",
		},
		{
			name:         "Concurrent sync",
			syncErr:      model.ErrSyncInProgress,
			method:       http.MethodPost,
			path:         "/users/user-1/sync",
			body:         `{"username":"octocat"}`,
			expectedCode: http.StatusConflict,
			expectedErr:  "SYNC_IN_PROGRESS",
		},
		{
			name:         "Unexpected failure",
			syncErr:      errors.New("disk full"),
			method:       http.MethodPost,
			path:         "/users/user-1/sync",
			body:         `{"username":"octocat"}`,
			expectedCode: http.StatusInternalServerError,
			expectedErr:  "GENERIC_ERROR",
		},
		{
			name:         "Profile not built yet",
			method:       http.MethodGet,
			path:         "/users/user-2/profile",
			expectedCode: http.StatusNotFound,
			expectedErr:  "NOT_FOUND",
		},
		{
			name:         "Unknown proficiency",
			method:       http.MethodPatch,
			path:         "/users/user-2/proficiencies/rust",
			body:         `{"tier":"advanced"}`,
			expectedCode: http.StatusNotFound,
			expectedErr:  "NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := setupRouter(t, tt.syncErr)

			w := perform(router, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.expectedCode, w.Code)

			var apiErr model.APIError
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
			assert.Equal(t, tt.expectedErr, apiErr.Code)
		})
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, StatusFor(store.ErrNotFound))
	assert.Equal(t, http.StatusBadRequest, StatusFor(model.ErrInvalidInput))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(model.ErrFetch))
}
