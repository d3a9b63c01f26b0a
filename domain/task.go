package domain

import (
	"slices"
	"strconv"
	"strings"
	"time"
)

// TaskIDPrefix is shared by task identifiers and their persisted keys.
const TaskIDPrefix = "task-"

const (
	ImportanceLow    = 0
	ImportanceMedium = 1
	ImportanceHigh   = 2
)

// Task represents a single to-do item.
type Task struct {
	ID          string    `json:"id" yaml:"id"`
	Description string    `json:"description" yaml:"description"`
	Importance  int       `json:"importance" yaml:"importance"`
	DueDate     time.Time `json:"due_date" yaml:"due_date"`
	Notes       string    `json:"notes" yaml:"notes"`
	Completed   bool      `json:"completed" yaml:"completed"`
	Projects    []string  `json:"projects" yaml:"projects"`
}

// Clone returns a deep copy so callers never share the membership slice.
func (t Task) Clone() Task {
	t.Projects = slices.Clone(t.Projects)
	if t.Projects == nil {
		t.Projects = []string{}
	}
	return t
}

func (t *Task) IsCompleted() bool {
	return t != nil && t.Completed
}

// InProject reports whether the task lists name in its memberships.
func (t *Task) InProject(name string) bool {
	return t != nil && slices.Contains(t.Projects, name)
}

// TaskID formats the identifier for counter value n.
func TaskID(n int) string {
	return TaskIDPrefix + strconv.Itoa(n)
}

// TaskSeq extracts the numeric suffix of a task id.
func TaskSeq(id string) (int, bool) {
	rest, ok := strings.CutPrefix(id, TaskIDPrefix)
	if !ok || rest == "" {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
