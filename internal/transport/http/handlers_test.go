package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accountservice "researchmatch/internal/account/service"
	accountstore "researchmatch/internal/account/store"
	applicationservice "researchmatch/internal/application/service"
	applicationstore "researchmatch/internal/application/store"
	"researchmatch/internal/mirror"
	projectservice "researchmatch/internal/project/service"
	projectstore "researchmatch/internal/project/store"
	"researchmatch/internal/token"
	"researchmatch/pkg/testutil"
)

type noopNotifier struct{}

func (noopNotifier) SendEmailConfirmation(context.Context, string, string) {}
func (noopNotifier) SendPasswordReset(context.Context, string, string)    {}
func (noopNotifier) SendEmailChange(context.Context, string, string)      {}

// envelope mirrors the response wire format.
type envelope struct {
	Success map[string]any `json:"success"`
	Error   map[string]any `json:"error"`
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	accounts := accountstore.NewMemory()
	projects := projectstore.NewMemory()
	applications := applicationstore.NewMemory()
	logger := slog.New(slog.DiscardHandler)
	tokens := token.NewService("access-secret", "refresh-secret", 15*time.Minute, 14*24*time.Hour)
	link := mirror.NewLink(projects, applications, logger)

	return NewRouter(RouterDeps{
		Accounts:     accountservice.NewService(accounts, tokens, noopNotifier{}, nil, nil, logger),
		Projects:     projectservice.NewService(projects, accounts, link, nil, nil, logger),
		Applications: applicationservice.NewService(applications, projects, accounts, link, nil, nil, logger),
		Tokens:       tokens,
		Logger:       logger,
	})
}

func doJSON(t *testing.T, router http.Handler, method, path, bearer string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func registerBody(email string, accountType int) map[string]any {
	return map[string]any{
		"email":       email,
		"name":        "Prof X",
		"password":    "longenoughpassword",
		"accountType": accountType,
	}
}

func registerAccount(t *testing.T, router http.Handler, email string, accountType int) (accessToken string) {
	t.Helper()
	rec, env := doJSON(t, router, http.MethodPost, "/register", "", registerBody(email, accountType))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "REGISTER_SUCCESS", env.Success["message"])
	return env.Success["accessToken"].(string)
}

func TestRegisterEnvelope(t *testing.T) {
	router := newTestRouter(t)

	rec, env := doJSON(t, router, http.MethodPost, "/register", "", registerBody("f@x.com", 1))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(http.StatusOK), env.Success["status"])
	assert.NotEmpty(t, env.Success["accessToken"])
	assert.NotEmpty(t, env.Success["refreshToken"])
	user := env.Success["user"].(map[string]any)
	assert.Equal(t, "f@x.com", user["email"])
}

func TestRegisterValidation(t *testing.T) {
	router := newTestRouter(t)

	body := registerBody("f@x.com", 1)
	body["password"] = "short"
	rec, env := doJSON(t, router, http.MethodPost, "/register", "", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INPUT_ERROR", env.Error["message"])

	body = registerBody("not-an-email", 1)
	rec, env = doJSON(t, router, http.MethodPost, "/register", "", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INPUT_ERROR", env.Error["message"])
}

func TestLoginWrongPassword(t *testing.T) {
	router := newTestRouter(t)
	registerAccount(t, router, "f@x.com", 1)

	rec, env := doJSON(t, router, http.MethodPost, "/login", "", map[string]any{
		"email":    "f@x.com",
		"password": "thewrongpassword",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "INVALID_PASSWORD", env.Error["message"])
}

func TestTokenEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec, env := doJSON(t, router, http.MethodPost, "/register", "", registerBody("f@x.com", 1))
	require.Equal(t, http.StatusOK, rec.Code)
	refresh := env.Success["refreshToken"].(string)

	rec, env = doJSON(t, router, http.MethodPost, "/token", "", map[string]any{"refreshToken": refresh})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ACCESS_TOKEN_GENERATED", env.Success["message"])
	assert.NotEmpty(t, env.Success["accessToken"])

	rec, env = doJSON(t, router, http.MethodPost, "/token", "", map[string]any{"refreshToken": "garbage"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_REFRESH_TOKEN", env.Error["message"])
}

func TestProjectsRequireBearerToken(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/projects/getProjects", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/projects/getProjects", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func projectBody(bucket, name string) map[string]any {
	return map[string]any{
		"projectType": bucket,
		"projectDetails": map[string]any{
			"project": map[string]any{
				"projectName": name,
				"description": "study of things",
				"questions":   []string{"Q1"},
				"requirements": []map[string]any{
					{"requirementType": 1, "requirementValue": "v", "required": true},
				},
			},
		},
	}
}

func TestProjectLifecycleOverHTTP(t *testing.T) {
	router := newTestRouter(t)
	access := registerAccount(t, router, "f@x.com", 1)

	rec, env := doJSON(t, router, http.MethodPost, "/projects/createProject", access, projectBody("Active", "P1"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "PROJECT_CREATED", env.Success["message"])

	rec, env = doJSON(t, router, http.MethodGet, "/projects/getProjects", access, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "PROJECTS_FOUND", env.Success["message"])
	projects := env.Success["projects"].(map[string]any)
	active := projects["activeProjects"].(map[string]any)
	entries := active["projects"].([]any)
	require.Len(t, entries, 1)
	entryID := entries[0].(map[string]any)["id"].(string)

	rec, env = doJSON(t, router, http.MethodPut, "/projects/archiveProject", access, map[string]any{"projectID": entryID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "PROJECT_ARCHIVED", env.Success["message"])

	rec, env = doJSON(t, router, http.MethodDelete, "/projects/deleteProject", access, map[string]any{
		"projectID":   entryID,
		"projectType": "Active",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "PROJECT_NOT_FOUND", env.Error["message"])

	rec, env = doJSON(t, router, http.MethodDelete, "/projects/deleteProject", access, map[string]any{
		"projectID":   entryID,
		"projectType": "Archived",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "PROJECT_DELETED", env.Success["message"])
}

func TestApplicationFlowOverHTTP(t *testing.T) {
	router := newTestRouter(t)
	facultyAccess := registerAccount(t, router, "f@x.com", 1)
	studentAccess := registerAccount(t, router, "s@x.com", 0)

	rec, _ := doJSON(t, router, http.MethodPost, "/projects/createProject", facultyAccess, projectBody("Active", "P1"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := doJSON(t, router, http.MethodGet, "/projects/getProjects", facultyAccess, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	projects := env.Success["projects"].(map[string]any)
	active := projects["activeProjects"].(map[string]any)
	projectID := active["projects"].([]any)[0].(map[string]any)["id"].(string)

	rec, env = doJSON(t, router, http.MethodPost, "/applications/createApplication", studentAccess, map[string]any{
		"projectID":      projectID,
		"professorEmail": "f@x.com",
		"questions":      []string{"Q1"},
		"answers":        []string{"A1"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "APPLICATION_CREATED", env.Success["message"])

	rec, env = doJSON(t, router, http.MethodGet, "/applications/getApplications", studentAccess, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "APPLICATIONS_FOUND", env.Success["message"])
	apps := env.Success["applications"].([]any)
	require.Len(t, apps, 1)
	row := apps[0].(map[string]any)
	assert.Equal(t, "P1", row["projectName"])
	assert.Equal(t, "f@x.com", row["professorEmail"])
	applicationID := row["id"].(string)

	// Faculty accepts the application.
	rec, env = doJSON(t, router, http.MethodPut, "/projects/application", facultyAccess, map[string]any{
		"projectID":     projectID,
		"applicationID": applicationID,
		"decision":      "Accept",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "APPLICATION_STATUS_UPDATED", env.Success["message"])

	// A second decision is rejected.
	rec, env = doJSON(t, router, http.MethodPut, "/projects/application", facultyAccess, map[string]any{
		"projectID":     projectID,
		"applicationID": applicationID,
		"decision":      "Reject",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "DECISION_ALREADY_UPDATED", env.Error["message"])
}

func TestRefreshTokenRotation(t *testing.T) {
	router := newTestRouter(t)

	testutil.Given(t, "a registered account", func(t *testing.T) {
		rec, env := doJSON(t, router, http.MethodPost, "/register", "", registerBody("f@x.com", 1))
		require.Equal(t, http.StatusOK, rec.Code)
		firstRefresh := env.Success["refreshToken"].(string)

		testutil.When(t, "logging in five more times", func(t *testing.T) {
			for i := 0; i < 5; i++ {
				rec, _ := doJSON(t, router, http.MethodPost, "/login", "", map[string]any{
					"email":    "f@x.com",
					"password": "longenoughpassword",
				})
				require.Equal(t, http.StatusOK, rec.Code)
			}

			testutil.Then(t, "the first refresh token is evicted", func(t *testing.T) {
				rec, env := doJSON(t, router, http.MethodPost, "/token", "", map[string]any{"refreshToken": firstRefresh})
				assert.Equal(t, http.StatusUnauthorized, rec.Code)
				assert.Equal(t, "EXPIRED_REFRESH_TOKEN", env.Error["message"])
			})
		})
	})
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, rec.Body.Len() > 0, fmt.Sprintf("metrics body empty, status %d", rec.Code))
}
