package task

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fastygo/tasktracker/domain"
)

// record is the persisted shape of a task. The due date travels as RFC3339 text.
type record struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Importance  int      `json:"importance"`
	DueDate     string   `json:"due_date"`
	Notes       string   `json:"notes"`
	Completed   bool     `json:"completed"`
	Projects    []string `json:"projects"`
}

func encode(t domain.Task) (string, error) {
	projects := t.Projects
	if projects == nil {
		projects = []string{}
	}
	b, err := json.Marshal(record{
		ID:          t.ID,
		Description: t.Description,
		Importance:  t.Importance,
		DueDate:     t.DueDate.Format(time.RFC3339Nano),
		Notes:       t.Notes,
		Completed:   t.Completed,
		Projects:    projects,
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decode(raw string, loc *time.Location) (domain.Task, error) {
	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return domain.Task{}, err
	}
	if _, ok := domain.TaskSeq(rec.ID); !ok {
		return domain.Task{}, fmt.Errorf("malformed task id %q", rec.ID)
	}
	due, err := time.Parse(time.RFC3339Nano, rec.DueDate)
	if err != nil {
		return domain.Task{}, fmt.Errorf("task %s: due date: %w", rec.ID, err)
	}
	t := domain.Task{
		ID:          rec.ID,
		Description: rec.Description,
		Importance:  rec.Importance,
		DueDate:     due.In(loc),
		Notes:       rec.Notes,
		Completed:   rec.Completed,
		Projects:    rec.Projects,
	}
	return t.Clone(), nil
}
