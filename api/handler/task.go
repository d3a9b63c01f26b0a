package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/tasktracker/api/transport"
	"github.com/fastygo/tasktracker/pkg/httpcontext"
	"github.com/fastygo/tasktracker/usecase/tracker"
)

type TaskHandler struct {
	baseHandler
	tracker *tracker.Tracker
	loc     *time.Location
}

// NewTaskHandler parses incoming due dates in loc.
func NewTaskHandler(tr *tracker.Tracker, loc *time.Location, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	if loc == nil {
		loc = time.Local
	}
	return &TaskHandler{
		baseHandler: newBaseHandler(adapter, logger),
		tracker:     tr,
		loc:         loc,
	}
}

// @Summary List tasks
// @Tags tasks
// @Param view query string false "all|today|week|completed|pending|overdue"
// @Param sort query string false "due|importance"
// @Router /api/v1/tasks [get]
func (h *TaskHandler) ListTasks(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	view := tracker.View(ctx.QueryArgs().Peek("view"))
	if view == "" {
		view = tracker.ViewAll
	}
	order := tracker.Order(ctx.QueryArgs().Peek("sort"))

	tasks, err := h.tracker.ListTasks(view, order)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondList(ctx, tasks, transport.ListMeta{View: string(view), Sort: string(order), Count: len(tasks)})
}

// @Summary Create task
// @Tags tasks
// @Router /api/v1/tasks [post]
func (h *TaskHandler) CreateTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var req transport.TaskRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondBadPayload(ctx, err)
		return
	}
	due, err := req.Validate(h.loc)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}

	created, err := h.tracker.AddNewTask(req.Description, req.Importance, due, req.Notes, req.Completed)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	ctx.Response.Header.Set("Location", "/api/v1/tasks/"+created.ID)
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Get task
// @Tags tasks
// @Router /api/v1/tasks/{id} [get]
func (h *TaskHandler) GetTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.tracker.GetTask(pathParam(ctx, "id"))
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

// @Summary Update task fields
// @Tags tasks
// @Router /api/v1/tasks/{id} [patch]
func (h *TaskHandler) UpdateTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	patch, err := transport.DecodePatch(ctx.PostBody())
	if err != nil {
		h.respondBadPayload(ctx, err)
		return
	}

	id := pathParam(ctx, "id")
	if err := h.tracker.UpdateTask(id, patch); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondCurrent(stdCtx, ctx, id)
}

// @Summary Toggle completion
// @Tags tasks
// @Router /api/v1/tasks/{id}/toggle [post]
func (h *TaskHandler) ToggleTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	id := pathParam(ctx, "id")
	if err := h.tracker.ToggleComplete(id); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondCurrent(stdCtx, ctx, id)
}

// @Summary Delete task
// @Tags tasks
// @Router /api/v1/tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.tracker.DeleteTask(pathParam(ctx, "id")); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondNoContent(ctx)
}

// @Summary Next due task
// @Tags tasks
// @Router /api/v1/tasks/next-due [get]
func (h *TaskHandler) NextDue(ctx *fasthttp.RequestCtx) {
	_, cancel := h.requestContext(ctx)
	defer cancel()

	next, ok := h.tracker.NextDue()
	payload := transport.NextDue{Found: ok}
	if ok {
		payload.Task = &next
	}
	h.respondSuccess(ctx, http.StatusOK, payload)
}

func (h *TaskHandler) respondCurrent(stdCtx context.Context, ctx *fasthttp.RequestCtx, id string) {
	task, err := h.tracker.GetTask(id)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}
