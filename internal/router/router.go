package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/tasktracker/api/handler"
)

type Handlers struct {
	Task    *apiHandler.TaskHandler
	Project *apiHandler.ProjectHandler
	Health  *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	api := r.Group("/api/v1")

	// Tasks. The literal next-due route wins over {id}.
	api.GET("/tasks", authMiddleware(handlers.Task.ListTasks))
	api.POST("/tasks", authMiddleware(handlers.Task.CreateTask))
	api.GET("/tasks/next-due", authMiddleware(handlers.Task.NextDue))
	api.GET("/tasks/{id}", authMiddleware(handlers.Task.GetTask))
	api.PATCH("/tasks/{id}", authMiddleware(handlers.Task.UpdateTask))
	api.DELETE("/tasks/{id}", authMiddleware(handlers.Task.DeleteTask))
	api.POST("/tasks/{id}/toggle", authMiddleware(handlers.Task.ToggleTask))

	// Projects
	api.GET("/projects", authMiddleware(handlers.Project.ListProjects))
	api.POST("/projects", authMiddleware(handlers.Project.CreateProject))
	api.GET("/projects/{name}", authMiddleware(handlers.Project.GetProject))
	api.DELETE("/projects/{name}", authMiddleware(handlers.Project.DeleteProject))
	api.GET("/projects/{name}/tasks", authMiddleware(handlers.Project.ProjectTasks))
	api.PUT("/projects/{name}/tasks/{id}", authMiddleware(handlers.Project.AddTask))
	api.DELETE("/projects/{name}/tasks/{id}", authMiddleware(handlers.Project.RemoveTask))

	return r
}
