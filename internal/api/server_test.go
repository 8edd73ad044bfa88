package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taskboard/taskboard/internal/api"
	"github.com/taskboard/taskboard/internal/auth"
	"github.com/taskboard/taskboard/internal/comment"
	"github.com/taskboard/taskboard/internal/model"
	"github.com/taskboard/taskboard/internal/notify"
	"github.com/taskboard/taskboard/internal/realtime"
	"github.com/taskboard/taskboard/internal/store"
	"github.com/taskboard/taskboard/internal/task"
	"github.com/taskboard/taskboard/tests/testutil"
)

type testServer struct {
	router http.Handler
	store  *store.SQLiteStore
	svc    *auth.Service
	issuer *auth.TokenIssuer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg, err := model.LoadConfig("does-not-exist.yaml")
	require.NoError(t, err)

	s := testutil.NewTestStore(t)
	hub := realtime.NewHub()
	fanout := notify.New(s, hub)
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	authSvc := auth.NewService(s, issuer)
	tasks := task.NewEngine(s, fanout, hub)
	comments := comment.NewEngine(s, fanout, hub)

	srv := api.NewServer(cfg, s, tasks, comments, fanout, authSvc, issuer, hub)
	return &testServer{router: srv.Router(), store: s, svc: authSvc, issuer: issuer}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) login(t *testing.T, email string) (string, *model.User) {
	t.Helper()
	u, err := ts.svc.Register(context.Background(), email, "correct horse", "Someone")
	require.NoError(t, err)
	token, err := ts.issuer.Issue(u.ID)
	require.NoError(t, err)
	return token, u
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(out))
}

func TestAuthRequiredOnProtectedRoutes(t *testing.T) {
	ts := newTestServer(t)

	for _, route := range []struct {
		method, path string
	}{
		{http.MethodGet, "/tasks"},
		{http.MethodPost, "/tasks"},
		{http.MethodGet, "/notifications"},
		{http.MethodGet, "/users/me"},
		{http.MethodGet, "/dashboard"},
	} {
		rec := ts.do(t, route.method, route.path, "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", route.method, route.path)
	}
}

func TestRegisterLoginFlow(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"email":        "ana@example.com",
		"password":     "correct horse",
		"display_name": "Ana",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "ana@example.com",
		"password": "correct horse",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var loginResp struct {
		Token string     `json:"token"`
		User  model.User `json:"user"`
	}
	decode(t, rec, &loginResp)
	require.NotEmpty(t, loginResp.Token)
	require.Equal(t, "Ana", loginResp.User.DisplayName)

	rec = ts.do(t, http.MethodGet, "/users/me", loginResp.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "ana@example.com",
		"password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTaskLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	token, u := ts.login(t, "ana@example.com")

	rec := ts.do(t, http.MethodPost, "/tasks", token, map[string]interface{}{
		"title":    "Ship release",
		"priority": "High",
		"tags":     []string{"release"},
		"due_date": "2026-09-10",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created model.Task
	decode(t, rec, &created)
	require.Equal(t, model.StatusToDo, created.Status)
	require.Equal(t, u.ID, created.CreatorID)
	require.NotNil(t, created.DueDate)

	rec = ts.do(t, http.MethodPatch, "/tasks/"+created.ID, token, map[string]interface{}{
		"status": "In Progress",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated model.Task
	decode(t, rec, &updated)
	require.Equal(t, model.StatusInProgress, updated.Status)
	require.Equal(t, "Ship release", updated.Title)

	rec = ts.do(t, http.MethodPatch, "/tasks/"+created.ID, token, map[string]interface{}{
		"status": "Blocked",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, "/tasks/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/tasks/"+created.ID, token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodGet, "/tasks/"+created.ID, token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListTasksParamsAndClamp(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.login(t, "ana@example.com")

	for i := 0; i < 3; i++ {
		rec := ts.do(t, http.MethodPost, "/tasks", token, map[string]interface{}{
			"title":    fmt.Sprintf("task %d", i),
			"priority": "Low",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := ts.do(t, http.MethodGet, "/tasks?priority=Low,High&page_size=500", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Tasks      []model.Task    `json:"tasks"`
		Pagination task.Pagination `json:"pagination"`
	}
	decode(t, rec, &resp)
	require.Len(t, resp.Tasks, 3)
	require.Equal(t, 3, resp.Pagination.TotalItems)
	// page_size is clamped to the configured maximum.
	require.Equal(t, 100, resp.Pagination.PageSize)

	rec = ts.do(t, http.MethodGet, "/tasks?status=Done", token, nil)
	decode(t, rec, &resp)
	require.Empty(t, resp.Tasks)
	require.Zero(t, resp.Pagination.TotalItems)
}

func TestCommentAndNotificationFlow(t *testing.T) {
	ts := newTestServer(t)
	anaToken, _ := ts.login(t, "ana@example.com")
	boToken, bo := ts.login(t, "bo@example.com")

	rec := ts.do(t, http.MethodPost, "/tasks", anaToken, map[string]interface{}{
		"title":     "Ship release",
		"assignees": []string{bo.ID},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created model.Task
	decode(t, rec, &created)

	rec = ts.do(t, http.MethodPost, "/tasks/"+created.ID+"/comments", boToken, map[string]string{
		"body": "on it",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var added model.Comment
	decode(t, rec, &added)
	require.Equal(t, bo.ID, added.AuthorID)

	// Ana edits someone else's comment without the manager role.
	rec = ts.do(t, http.MethodPatch, "/comments/"+added.ID, anaToken, map[string]string{
		"body": "hijacked",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Bo got an assignment notification, Ana a comment notification.
	rec = ts.do(t, http.MethodGet, "/notifications", boToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var notifs []model.Notification
	decode(t, rec, &notifs)
	require.Len(t, notifs, 1)
	require.Equal(t, model.NotificationAssignment, notifs[0].Type)

	rec = ts.do(t, http.MethodGet, "/notifications", anaToken, nil)
	decode(t, rec, &notifs)
	require.Len(t, notifs, 1)
	require.Equal(t, model.NotificationNewComment, notifs[0].Type)

	// Marking another user's notification is forbidden.
	rec = ts.do(t, http.MethodPatch, "/notifications/"+notifs[0].ID+"/read", boToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodPatch, "/notifications/"+notifs[0].ID+"/read", anaToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestDashboardRequiresManager(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.login(t, "ana@example.com")

	rec := ts.do(t, http.MethodGet, "/dashboard", token, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	manager := testutil.SeedManager(t, ts.store, "Max")
	managerToken, err := ts.issuer.Issue(manager.ID)
	require.NoError(t, err)

	rec = ts.do(t, http.MethodGet, "/dashboard", managerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var summary store.TeamSummary
	decode(t, rec, &summary)
	require.Zero(t, summary.TotalTasks)
}

func TestBulkDeleteOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.login(t, "ana@example.com")

	var ids []string
	for i := 0; i < 2; i++ {
		rec := ts.do(t, http.MethodPost, "/tasks", token, map[string]string{"title": fmt.Sprintf("task %d", i)})
		require.Equal(t, http.StatusCreated, rec.Code)
		var created model.Task
		decode(t, rec, &created)
		ids = append(ids, created.ID)
	}

	rec := ts.do(t, http.MethodPost, "/tasks/bulk-delete", token, map[string]interface{}{
		"task_ids": append(ids, "missing"),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]int
	decode(t, rec, &resp)
	require.Equal(t, 2, resp["count"])
}
