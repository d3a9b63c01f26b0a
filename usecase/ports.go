package usecase

import "github.com/fastygo/tasktracker/domain"

// ProjectIndex is the project-side cleanup the task store needs when a task is deleted.
type ProjectIndex interface {
	RemoveTaskFromAllProjects(taskID string) error
}

// TaskMembership lets the project store keep each task's reciprocal project list in sync.
type TaskMembership interface {
	HasTask(taskID string) bool
	GetTaskByID(taskID string) (domain.Task, error)
	Restore(saved []domain.Task) error
	AddProject(taskID, project string) error
	RemoveProject(taskID, project string) error
}

// ChangeNotifier is invoked after any mutation that may change the earliest-due task.
type ChangeNotifier func()
