package router

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/tasktracker/api/handler"
	"github.com/fastygo/tasktracker/api/transport"
	"github.com/fastygo/tasktracker/domain"
	"github.com/fastygo/tasktracker/internal/infrastructure/kv"
	"github.com/fastygo/tasktracker/internal/infrastructure/monitor"
	"github.com/fastygo/tasktracker/internal/middleware"
	"github.com/fastygo/tasktracker/internal/testutil"
	"github.com/fastygo/tasktracker/pkg/httpcontext"
	"github.com/fastygo/tasktracker/usecase/auth"
	"github.com/fastygo/tasktracker/usecase/task"
	"github.com/fastygo/tasktracker/usecase/tracker"
)

var now = time.Date(2024, 6, 12, 10, 0, 0, 0, time.UTC)

type response struct {
	Status string               `json:"status"`
	Code   string               `json:"code"`
	Data   json.RawMessage      `json:"data"`
	Error  *transport.ErrorBody `json:"error"`
	Meta   json.RawMessage      `json:"meta"`
}

func newServer(t *testing.T, secret string) (fasthttp.RequestHandler, *auth.UseCase) {
	t.Helper()
	store := kv.NewMemory()
	tr, err := tracker.New(store, nil, task.WithClock(testutil.FixedClock(now)), task.WithLocation(time.UTC))
	require.NoError(t, err)

	mon := monitor.New(store, "memory", time.Hour, nil)
	mon.Refresh()

	adapter := httpcontext.NewAdapter(time.Second)
	issuer := auth.New(secret, "tasktracker", nil)
	r := New(Handlers{
		Task:    apiHandler.NewTaskHandler(tr, time.UTC, adapter, nil),
		Project: apiHandler.NewProjectHandler(tr, adapter, nil),
		Health:  apiHandler.NewHealthHandler(mon, tr, adapter, nil),
	}, middleware.JWTAuth(issuer, nil))
	return r.Handler, issuer
}

func do(t *testing.T, h fasthttp.RequestHandler, method, uri, body, token string) (int, response) {
	t.Helper()
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(uri)
	if body != "" {
		req.Header.SetContentType("application/json")
		req.SetBodyString(body)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	var ctx fasthttp.RequestCtx
	ctx.Init(&req, nil, nil)
	h(&ctx)

	var out response
	if len(ctx.Response.Body()) > 0 {
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &out), string(ctx.Response.Body()))
	}
	return ctx.Response.StatusCode(), out
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestTaskRoutes(t *testing.T) {
	h, _ := newServer(t, "")

	status, res := do(t, h, "POST", "/api/v1/tasks", `{"description":"Buy milk","importance":1,"due_date":"2024-06-12T18:00:00Z"}`, "")
	require.Equal(t, fasthttp.StatusCreated, status)
	created := decode[domain.Task](t, res.Data)
	assert.Equal(t, "task-0", created.ID)

	status, res = do(t, h, "POST", "/api/v1/tasks", `{"description":"x","importance":7,"due_date":"tomorrow"}`, "")
	assert.Equal(t, fasthttp.StatusBadRequest, status)
	assert.Equal(t, "INVALID", res.Code)
	require.NotNil(t, res.Error)
	require.Len(t, res.Error.Fields, 2)
	assert.Equal(t, domain.FieldDueDate, res.Error.Fields[0].Field)
	assert.Equal(t, domain.FieldImportance, res.Error.Fields[1].Field)

	status, res = do(t, h, "POST", "/api/v1/tasks", `{"description":"x","importance":9}`, "")
	assert.Equal(t, fasthttp.StatusBadRequest, status)
	require.NotNil(t, res.Error)
	assert.Len(t, res.Error.Fields, 2)

	status, res = do(t, h, "PATCH", "/api/v1/tasks/task-0", `{}`, "")
	require.Equal(t, fasthttp.StatusOK, status)
	assert.Equal(t, created, decode[domain.Task](t, res.Data))

	status, res = do(t, h, "POST", "/api/v1/tasks", `{not json`, "")
	assert.Equal(t, fasthttp.StatusBadRequest, status)
	assert.Equal(t, "INVALID", res.Code)

	status, res = do(t, h, "PATCH", "/api/v1/tasks/task-0", `{"importance":5,"foo":1}`, "")
	assert.Equal(t, fasthttp.StatusBadRequest, status)
	require.NotNil(t, res.Error)
	assert.Len(t, res.Error.Fields, 2)

	status, res = do(t, h, "PATCH", "/api/v1/tasks/task-0", `{"completed":true,"due_date":"2024-06-13"}`, "")
	require.Equal(t, fasthttp.StatusOK, status)
	updated := decode[domain.Task](t, res.Data)
	assert.True(t, updated.Completed)
	assert.Equal(t, "Buy milk", updated.Description)
	assert.True(t, updated.DueDate.Equal(time.Date(2024, 6, 13, 0, 0, 0, 0, time.UTC)))

	status, res = do(t, h, "POST", "/api/v1/tasks/task-0/toggle", "", "")
	require.Equal(t, fasthttp.StatusOK, status)
	assert.False(t, decode[domain.Task](t, res.Data).Completed)

	status, res = do(t, h, "GET", "/api/v1/tasks/next-due", "", "")
	require.Equal(t, fasthttp.StatusOK, status)
	next := decode[transport.NextDue](t, res.Data)
	assert.True(t, next.Found)
	assert.Equal(t, "task-0", next.Task.ID)

	status, res = do(t, h, "GET", "/api/v1/tasks?view=week&sort=importance", "", "")
	require.Equal(t, fasthttp.StatusOK, status)
	assert.Len(t, decode[[]domain.Task](t, res.Data), 1)
	assert.Equal(t, 1, decode[transport.ListMeta](t, res.Meta).Count)

	status, _ = do(t, h, "GET", "/api/v1/tasks?view=someday", "", "")
	assert.Equal(t, fasthttp.StatusBadRequest, status)

	status, _ = do(t, h, "DELETE", "/api/v1/tasks/task-0", "", "")
	assert.Equal(t, fasthttp.StatusNoContent, status)
	status, res = do(t, h, "GET", "/api/v1/tasks/task-0", "", "")
	assert.Equal(t, fasthttp.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", res.Code)

	status, res = do(t, h, "GET", "/api/v1/tasks/next-due", "", "")
	require.Equal(t, fasthttp.StatusOK, status)
	assert.False(t, decode[transport.NextDue](t, res.Data).Found)
}

func TestReadRoutes_EchoRequestID(t *testing.T) {
	h, _ := newServer(t, "")

	requestID := func(uri, sent string) string {
		var req fasthttp.Request
		req.Header.SetMethod("GET")
		req.SetRequestURI(uri)
		if sent != "" {
			req.Header.Set(httpcontext.HeaderRequestID, sent)
		}
		var ctx fasthttp.RequestCtx
		ctx.Init(&req, nil, nil)
		h(&ctx)
		require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
		return string(ctx.Response.Header.Peek(httpcontext.HeaderRequestID))
	}

	for _, uri := range []string{"/api/v1/tasks/next-due", "/api/v1/projects", "/health"} {
		assert.Equal(t, "req-42", requestID(uri, "req-42"), uri)
		assert.NotEmpty(t, requestID(uri, ""), uri)
	}
}

func TestProjectRoutes(t *testing.T) {
	h, _ := newServer(t, "")
	_, res := do(t, h, "POST", "/api/v1/tasks", `{"description":"Buy milk","importance":1,"due_date":"2024-06-12T18:00:00Z"}`, "")
	id := decode[domain.Task](t, res.Data).ID

	status, _ := do(t, h, "POST", "/api/v1/projects", `{"name":"Groceries"}`, "")
	require.Equal(t, fasthttp.StatusCreated, status)
	status, res = do(t, h, "POST", "/api/v1/projects", `{"name":"Groceries","description":"again"}`, "")
	assert.Equal(t, fasthttp.StatusConflict, status)
	assert.Equal(t, "CONFLICT", res.Code)

	status, res = do(t, h, "PUT", "/api/v1/projects/Groceries/tasks/"+id, "", "")
	require.Equal(t, fasthttp.StatusOK, status)
	assert.Equal(t, []string{id}, decode[domain.Project](t, res.Data).Tasks)

	status, res = do(t, h, "GET", "/api/v1/projects/Groceries/tasks", "", "")
	require.Equal(t, fasthttp.StatusOK, status)
	assert.Equal(t, []string{id}, decode[[]string](t, res.Data))

	status, _ = do(t, h, "PUT", "/api/v1/projects/Groceries/tasks/task-42", "", "")
	assert.Equal(t, fasthttp.StatusNotFound, status)

	status, _ = do(t, h, "DELETE", "/api/v1/projects/Groceries/tasks/"+id, "", "")
	require.Equal(t, fasthttp.StatusOK, status)
	status, _ = do(t, h, "DELETE", "/api/v1/projects/Groceries/tasks/"+id, "", "")
	assert.Equal(t, fasthttp.StatusNotFound, status)

	status, res = do(t, h, "GET", "/api/v1/projects", "", "")
	require.Equal(t, fasthttp.StatusOK, status)
	assert.Len(t, decode[[]domain.Project](t, res.Data), 1)

	status, _ = do(t, h, "DELETE", "/api/v1/projects/Groceries", "", "")
	assert.Equal(t, fasthttp.StatusNoContent, status)
	status, _ = do(t, h, "GET", "/api/v1/projects/Groceries", "", "")
	assert.Equal(t, fasthttp.StatusNotFound, status)
}

func TestHealth(t *testing.T) {
	h, _ := newServer(t, "secret")
	status, res := do(t, h, "GET", "/health", "", "")
	require.Equal(t, fasthttp.StatusOK, status)
	assert.Equal(t, "success", res.Status)
}

func TestJWTGuard(t *testing.T) {
	h, issuer := newServer(t, "secret")

	status, res := do(t, h, "GET", "/api/v1/tasks", "", "")
	assert.Equal(t, fasthttp.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", res.Code)

	status, _ = do(t, h, "GET", "/api/v1/tasks", "", "not-a-token")
	assert.Equal(t, fasthttp.StatusUnauthorized, status)

	token, err := issuer.Issue("me", time.Hour)
	require.NoError(t, err)
	status, _ = do(t, h, "GET", "/api/v1/tasks", "", token.Value)
	assert.Equal(t, fasthttp.StatusOK, status)

	other := auth.New("other-secret", "tasktracker", nil)
	forged, err := other.Issue("me", time.Hour)
	require.NoError(t, err)
	status, _ = do(t, h, "GET", "/api/v1/tasks", "", forged.Value)
	assert.Equal(t, fasthttp.StatusUnauthorized, status)
}
