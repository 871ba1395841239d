package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/taskdock/taskdock/internal/service"
	"github.com/taskdock/taskdock/internal/store/drivers/sqlite"
	"github.com/taskdock/taskdock/pkg/jwtx"
	"github.com/taskdock/taskdock/pkg/sdk"
)

type routerFixture struct {
	router *Router
	clock  *fakeClock
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestRouter(t *testing.T) *routerFixture {
	t.Helper()

	st, err := sqlite.NewStore("file:" + filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	clock := &fakeClock{now: time.Now().UTC()}

	secret := []byte("0123456789abcdef0123456789abcdef")
	signer, err := jwtx.NewSignerHS256(secret)
	require.NoError(t, err)
	verifier := jwtx.NewVerifierHS256(secret, "test-issuer")
	verifier.Now = clock.Now

	authSvc := &service.AuthService{
		Store:    st,
		Signer:   signer,
		Verifier: verifier,

		Issuer:     "test-issuer",
		AccessTTL:  30 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,

		PasswordPolicy: service.DefaultPasswordPolicy(),

		LockoutThreshold: 5,
		LockoutDuration:  30 * time.Minute,

		Now: clock.Now,
	}

	router := NewRouter(verifier, "test", st, slog.New(slog.DiscardHandler))
	router.AuthService = authSvc
	router.TaskService = &service.TaskService{Store: st, Now: clock.Now}
	router.ApplyRoutes()

	return &routerFixture{router: router, clock: clock}
}

func (f *routerFixture) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

const registerBody = `{"email":"alice@example.com","password":"Sup3r-Secret!"}`

func TestRegisterEndpoint(t *testing.T) {
	f := newTestRouter(t)

	rec := f.do(t, http.MethodPost, "/v1/auth/register", "", registerBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := decodeBody[sdk.TokenResponse](t, rec)
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)
	require.Equal(t, "bearer", resp.TokenType)
	require.Equal(t, 1800, resp.ExpiresIn)

	t.Run("duplicate email", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/v1/auth/register", "", registerBody)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		require.Equal(t, sdk.ErrorCodeDuplicateAccount, decodeBody[sdk.ErrorResponse](t, rec).Error)
	})

	t.Run("invalid email", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/v1/auth/register", "", `{"email":"nope","password":"Sup3r-Secret!"}`)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		require.Equal(t, sdk.ErrorCodeInvalidEmail, decodeBody[sdk.ErrorResponse](t, rec).Error)
	})

	t.Run("weak password", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/v1/auth/register", "", `{"email":"bob@example.com","password":"short"}`)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		require.Equal(t, sdk.ErrorCodeWeakPassword, decodeBody[sdk.ErrorResponse](t, rec).Error)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/v1/auth/register", "", `{`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLoginEndpoint(t *testing.T) {
	f := newTestRouter(t)
	require.Equal(t, http.StatusCreated,
		f.do(t, http.MethodPost, "/v1/auth/register", "", registerBody).Code)

	t.Run("success", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/v1/auth/login", "", registerBody)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotEmpty(t, decodeBody[sdk.TokenResponse](t, rec).AccessToken)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/v1/auth/login", "", `{"email":"alice@example.com","password":"Wr0ng-Secret!"}`)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, sdk.ErrorCodeInvalidCredentials, decodeBody[sdk.ErrorResponse](t, rec).Error)
	})

	t.Run("unknown email gets the same error", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/v1/auth/login", "", `{"email":"ghost@example.com","password":"Wr0ng-Secret!"}`)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, sdk.ErrorCodeInvalidCredentials, decodeBody[sdk.ErrorResponse](t, rec).Error)
	})
}

func TestLoginEndpoint_Lockout(t *testing.T) {
	f := newTestRouter(t)
	require.Equal(t, http.StatusCreated,
		f.do(t, http.MethodPost, "/v1/auth/register", "", registerBody).Code)

	wrong := `{"email":"alice@example.com","password":"Wr0ng-Secret!"}`
	for i := 0; i < 4; i++ {
		require.Equal(t, http.StatusUnauthorized,
			f.do(t, http.MethodPost, "/v1/auth/login", "", wrong).Code)
	}

	// The locking attempt reports the lockout with a retry hint.
	rec := f.do(t, http.MethodPost, "/v1/auth/login", "", wrong)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decodeBody[sdk.ErrorResponse](t, rec)
	require.Equal(t, sdk.ErrorCodeAccountLocked, resp.Error)
	require.Equal(t, 1800, resp.RetryAfter)
	require.Equal(t, "1800", rec.Header().Get("Retry-After"))

	// Correct credentials bounce too while locked.
	rec = f.do(t, http.MethodPost, "/v1/auth/login", "", registerBody)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, sdk.ErrorCodeAccountLocked, decodeBody[sdk.ErrorResponse](t, rec).Error)

	// The lock releases after the window.
	f.clock.now = f.clock.now.Add(31 * time.Minute)
	require.Equal(t, http.StatusOK,
		f.do(t, http.MethodPost, "/v1/auth/login", "", registerBody).Code)
}

func TestRefreshEndpoint(t *testing.T) {
	f := newTestRouter(t)

	rec := f.do(t, http.MethodPost, "/v1/auth/register", "", registerBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	pair := decodeBody[sdk.TokenResponse](t, rec)

	t.Run("success returns access token only", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/v1/auth/refresh", "", `{"refresh_token":"`+pair.RefreshToken+`"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decodeBody[sdk.TokenResponse](t, rec)
		require.NotEmpty(t, resp.AccessToken)
		require.Empty(t, resp.RefreshToken, "refresh tokens are not rotated")
	})

	t.Run("access token rejected", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/v1/auth/refresh", "", `{"refresh_token":"`+pair.AccessToken+`"}`)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, sdk.ErrorCodeInvalidRefreshToken, decodeBody[sdk.ErrorResponse](t, rec).Error)
	})

	t.Run("missing token", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/v1/auth/refresh", "", `{"refresh_token":""}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestTaskEndpoints(t *testing.T) {
	f := newTestRouter(t)

	rec := f.do(t, http.MethodPost, "/v1/auth/register", "", registerBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	pair := decodeBody[sdk.TokenResponse](t, rec)

	t.Run("requires a bearer token", func(t *testing.T) {
		require.Equal(t, http.StatusUnauthorized,
			f.do(t, http.MethodGet, "/v1/tasks", "", "").Code)
	})

	t.Run("rejects a refresh token", func(t *testing.T) {
		require.Equal(t, http.StatusUnauthorized,
			f.do(t, http.MethodGet, "/v1/tasks", pair.RefreshToken, "").Code)
	})

	var taskID string
	t.Run("create", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/v1/tasks", pair.AccessToken, `{"title":"write tests"}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		task := decodeBody[sdk.TaskResponse](t, rec)
		require.NotEmpty(t, task.ID)
		require.Equal(t, "write tests", task.Title)
		taskID = task.ID
	})

	t.Run("list", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/v1/tasks", pair.AccessToken, "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, decodeBody[sdk.TaskListResponse](t, rec).Tasks, 1)
	})

	t.Run("update", func(t *testing.T) {
		rec := f.do(t, http.MethodPut, "/v1/tasks/"+taskID, pair.AccessToken, `{"title":"write more tests"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "write more tests", decodeBody[sdk.TaskResponse](t, rec).Title)
	})

	t.Run("complete hides from default list", func(t *testing.T) {
		rec := f.do(t, http.MethodPatch, "/v1/tasks/"+taskID+"/complete", pair.AccessToken, `{"completed":true}`)
		require.Equal(t, http.StatusOK, rec.Code)
		require.True(t, decodeBody[sdk.TaskResponse](t, rec).Completed)

		rec = f.do(t, http.MethodGet, "/v1/tasks", pair.AccessToken, "")
		require.Empty(t, decodeBody[sdk.TaskListResponse](t, rec).Tasks)

		rec = f.do(t, http.MethodGet, "/v1/tasks?include_completed=true", pair.AccessToken, "")
		require.Len(t, decodeBody[sdk.TaskListResponse](t, rec).Tasks, 1)
	})

	t.Run("delete", func(t *testing.T) {
		require.Equal(t, http.StatusNoContent,
			f.do(t, http.MethodDelete, "/v1/tasks/"+taskID, pair.AccessToken, "").Code)
		require.Equal(t, http.StatusNotFound,
			f.do(t, http.MethodGet, "/v1/tasks/"+taskID, pair.AccessToken, "").Code)
	})
}

func TestTaskEndpoints_CrossAccountIsolation(t *testing.T) {
	f := newTestRouter(t)

	rec := f.do(t, http.MethodPost, "/v1/auth/register", "", registerBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	alice := decodeBody[sdk.TokenResponse](t, rec)

	rec = f.do(t, http.MethodPost, "/v1/auth/register", "", `{"email":"mallory@example.com","password":"Sup3r-Secret!"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	mallory := decodeBody[sdk.TokenResponse](t, rec)

	rec = f.do(t, http.MethodPost, "/v1/tasks", alice.AccessToken, `{"title":"private"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	taskID := decodeBody[sdk.TaskResponse](t, rec).ID

	require.Equal(t, http.StatusNotFound,
		f.do(t, http.MethodGet, "/v1/tasks/"+taskID, mallory.AccessToken, "").Code)
	require.Equal(t, http.StatusNotFound,
		f.do(t, http.MethodDelete, "/v1/tasks/"+taskID, mallory.AccessToken, "").Code)
}

func TestHealthEndpoints(t *testing.T) {
	f := newTestRouter(t)

	rec := f.do(t, http.MethodGet, "/livez", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", decodeBody[sdk.HealthResponse](t, rec).Status)

	rec = f.do(t, http.MethodGet, "/readyz", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[sdk.HealthResponse](t, rec)
	require.Equal(t, "ok", resp.Status)
	require.NotNil(t, resp.Checks)
	require.Equal(t, "ok", resp.Checks.Database)
}

func TestSDKClient_EndToEnd(t *testing.T) {
	f := newTestRouter(t)

	server := httptest.NewServer(f.router)
	t.Cleanup(server.Close)

	client := sdk.NewClient(server.URL)
	ctx := context.Background()

	session, err := client.Register(ctx, "carol@example.com", "Sup3r-Secret!")
	require.NoError(t, err)

	task, err := session.CreateTask(ctx, sdk.TaskCreateRequest{Title: "ship it"})
	require.NoError(t, err)

	tasks, err := session.ListTasks(ctx, false)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.Equal(t, task.ID, tasks[0].ID)

	_, err = session.CompleteTask(ctx, task.ID, true)
	require.NoError(t, err)

	require.NoError(t, session.DeleteTask(ctx, task.ID))

	_, err = session.GetTask(ctx, task.ID)
	var apiErr *sdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusNotFound, apiErr.StatusCode)

	// Wrong password surfaces as a typed credential error.
	_, err = client.Login(ctx, "carol@example.com", "Wr0ng-Secret!")
	require.ErrorAs(t, err, &apiErr)
	require.True(t, apiErr.IsInvalidCredentials())
}
