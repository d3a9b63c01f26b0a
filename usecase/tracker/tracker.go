// Package tracker wires the task and project stores together and serializes
// access to them so concurrent transports see a single-threaded data layer.
package tracker

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/tasktracker/domain"
	"github.com/fastygo/tasktracker/internal/infrastructure/kv"
	"github.com/fastygo/tasktracker/usecase/project"
	"github.com/fastygo/tasktracker/usecase/task"
)

// View names a task listing.
type View string

const (
	ViewAll       View = "all"
	ViewToday     View = "today"
	ViewWeek      View = "week"
	ViewCompleted View = "completed"
	ViewPending   View = "pending"
	ViewOverdue   View = "overdue"
)

// Order names a task sort order.
type Order string

const (
	OrderNone       Order = ""
	OrderDueDate    Order = "due"
	OrderImportance Order = "importance"
)

// NextDueFunc receives the earliest upcoming pending task after each relevant change.
type NextDueFunc func(next domain.Task, ok bool)

// Snapshot is a point-in-time copy of both collections.
type Snapshot struct {
	ExportedAt time.Time        `json:"exported_at" yaml:"exported_at"`
	Tasks      []domain.Task    `json:"tasks" yaml:"tasks"`
	Projects   []domain.Project `json:"projects" yaml:"projects"`
}

type Tracker struct {
	mu        sync.Mutex
	tasks     *task.Store
	projects  *project.Store
	onNextDue NextDueFunc
	logger    *zap.Logger
}

// New loads tasks, then projects, and links the two stores.
func New(store kv.Store, logger *zap.Logger, opts ...task.Option) (*Tracker, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Tracker{logger: logger}

	opts = append(opts, task.WithNotifier(t.changed))
	tasks, err := task.New(store, logger.Named("tasks"), opts...)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	projects, err := project.New(store, tasks, logger.Named("projects"))
	if err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}
	tasks.AttachProjects(projects)

	t.tasks = tasks
	t.projects = projects
	t.reconcile()
	return t, nil
}

// reconcile rebuilds each task's project list from the project records, which
// are authoritative once dangling task ids have been dropped from them.
func (t *Tracker) reconcile() {
	members := make(map[string][]string)
	for _, p := range t.projects.GetAllProjects() {
		for _, id := range p.Tasks {
			members[id] = append(members[id], p.Name)
		}
	}
	t.tasks.SyncMembership(members)
}

// resync reloads both stores from storage and repairs membership.
func (t *Tracker) resync() error {
	if err := t.tasks.Reload(); err != nil {
		return err
	}
	if err := t.projects.Reload(); err != nil {
		return err
	}
	t.reconcile()
	t.changed()
	return nil
}

// OnNextDue registers the next-due subscriber.
func (t *Tracker) OnNextDue(fn NextDueFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onNextDue = fn
}

// RefreshNextDue pushes the current next-due task to the subscriber.
func (t *Tracker) RefreshNextDue() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.changed()
}

// changed runs with t.mu held.
func (t *Tracker) changed() {
	if t.onNextDue == nil || t.tasks == nil {
		return
	}
	next, ok := t.tasks.NextDue()
	t.onNextDue(next, ok)
}

func (t *Tracker) AddNewTask(description string, importance int, dueDate time.Time, notes string, completed bool) (domain.Task, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tasks.AddNewTask(description, importance, dueDate, notes, completed)
}

func (t *Tracker) UpdateTask(id string, fields map[string]any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tasks.Update(id, fields)
}

func (t *Tracker) ToggleComplete(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tasks.ToggleComplete(id)
}

func (t *Tracker) DeleteTask(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tasks.Delete(id)
}

func (t *Tracker) GetTask(id string) (domain.Task, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tasks.GetTaskByID(id)
}

func (t *Tracker) TaskIDs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tasks.GetTaskIDs()
}

func (t *Tracker) NumTasks() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tasks.GetNumTasks()
}

func (t *Tracker) NextDue() (domain.Task, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tasks.NextDue()
}

// ListTasks returns the tasks of a view, optionally re-sorted.
func (t *Tracker) ListTasks(view View, order Order) ([]domain.Task, error) {
	t.mu.Lock()
	var tasks []domain.Task
	switch view {
	case ViewAll, "":
		tasks = t.tasks.GetAllTasks()
	case ViewToday:
		tasks = t.tasks.GetTodaysTasks()
	case ViewWeek:
		tasks = t.tasks.GetWeeksTasks()
	case ViewCompleted:
		tasks = t.tasks.GetCompletedTasks()
	case ViewPending:
		tasks = t.tasks.GetPendingTasks()
	case ViewOverdue:
		tasks = t.tasks.GetOverdueTasks()
	default:
		t.mu.Unlock()
		return nil, domain.NewValidationError([]domain.FieldError{{Field: "view", Reason: fmt.Sprintf("unknown view %q", view)}})
	}
	t.mu.Unlock()

	switch order {
	case OrderNone:
		return tasks, nil
	case OrderDueDate:
		return task.SortByDueDate(tasks), nil
	case OrderImportance:
		return task.SortByImportance(tasks), nil
	default:
		return nil, domain.NewValidationError([]domain.FieldError{{Field: "sort", Reason: fmt.Sprintf("unknown order %q", order)}})
	}
}

func (t *Tracker) AddNewProject(name, description string) (domain.Project, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.projects.AddNewProject(name, description)
}

func (t *Tracker) AddTaskToProject(name, taskID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.projects.AddTask(name, taskID)
}

func (t *Tracker) RemoveTaskFromProject(name, taskID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.projects.RemoveTask(name, taskID)
}

func (t *Tracker) DeleteProject(name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.projects.Delete(name)
}

func (t *Tracker) GetProject(name string) (domain.Project, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.projects.GetProject(name)
}

func (t *Tracker) AllProjects() []domain.Project {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.projects.GetAllProjects()
}

func (t *Tracker) ProjectNames() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.projects.GetAllProjectNames()
}

func (t *Tracker) ProjectTasks(name string) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.projects.GetProjectTasks(name)
}

// Wipe clears projects first so no project is left pointing at a removed task.
// If either step fails, both collections are written back and re-synced.
func (t *Tracker) Wipe() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	savedTasks := t.tasks.GetAllTasks()
	savedProjects := t.projects.GetAllProjects()

	err := t.projects.WipeMemory()
	if err == nil {
		err = t.tasks.WipeMemory()
	}
	if err == nil {
		return nil
	}

	t.logger.Warn("wipe failed, restoring previous state", zap.Error(err))
	if rerr := errors.Join(t.tasks.Restore(savedTasks), t.projects.Restore(savedProjects)); rerr != nil {
		t.logger.Error("failed to restore records after wipe failure", zap.Error(rerr))
	}
	if rerr := t.resync(); rerr != nil {
		t.logger.Error("failed to re-sync after wipe failure", zap.Error(rerr))
	}
	return err
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		ExportedAt: time.Now().UTC(),
		Tasks:      t.tasks.GetAllTasks(),
		Projects:   t.projects.GetAllProjects(),
	}
}
