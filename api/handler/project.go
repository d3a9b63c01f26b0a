package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/tasktracker/api/transport"
	"github.com/fastygo/tasktracker/pkg/httpcontext"
	"github.com/fastygo/tasktracker/usecase/tracker"
)

type ProjectHandler struct {
	baseHandler
	tracker *tracker.Tracker
}

func NewProjectHandler(tr *tracker.Tracker, adapter *httpcontext.Adapter, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{
		baseHandler: newBaseHandler(adapter, logger),
		tracker:     tr,
	}
}

// @Summary List projects
// @Tags projects
// @Router /api/v1/projects [get]
func (h *ProjectHandler) ListProjects(ctx *fasthttp.RequestCtx) {
	_, cancel := h.requestContext(ctx)
	defer cancel()

	projects := h.tracker.AllProjects()
	h.respondList(ctx, projects, map[string]int{"count": len(projects)})
}

// @Summary Create project
// @Tags projects
// @Router /api/v1/projects [post]
func (h *ProjectHandler) CreateProject(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var req transport.ProjectRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondBadPayload(ctx, err)
		return
	}

	created, err := h.tracker.AddNewProject(req.Name, req.Description)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Get project
// @Tags projects
// @Router /api/v1/projects/{name} [get]
func (h *ProjectHandler) GetProject(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	p, err := h.tracker.GetProject(pathParam(ctx, "name"))
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, p)
}

// @Summary Delete project
// @Tags projects
// @Router /api/v1/projects/{name} [delete]
func (h *ProjectHandler) DeleteProject(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.tracker.DeleteProject(pathParam(ctx, "name")); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondNoContent(ctx)
}

// @Summary Project task ids
// @Tags projects
// @Router /api/v1/projects/{name}/tasks [get]
func (h *ProjectHandler) ProjectTasks(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	ids, err := h.tracker.ProjectTasks(pathParam(ctx, "name"))
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondList(ctx, ids, map[string]int{"count": len(ids)})
}

// @Summary Add task to project
// @Tags projects
// @Router /api/v1/projects/{name}/tasks/{id} [put]
func (h *ProjectHandler) AddTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	name := pathParam(ctx, "name")
	if err := h.tracker.AddTaskToProject(name, pathParam(ctx, "id")); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondProject(stdCtx, ctx, name)
}

// @Summary Remove task from project
// @Tags projects
// @Router /api/v1/projects/{name}/tasks/{id} [delete]
func (h *ProjectHandler) RemoveTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	name := pathParam(ctx, "name")
	if err := h.tracker.RemoveTaskFromProject(name, pathParam(ctx, "id")); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondProject(stdCtx, ctx, name)
}

func (h *ProjectHandler) respondProject(stdCtx context.Context, ctx *fasthttp.RequestCtx, name string) {
	p, err := h.tracker.GetProject(name)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, p)
}
