package task

import (
	"sort"
	"time"

	"github.com/fastygo/tasktracker/domain"
)

// GetTaskByID returns a copy of the task.
func (s *Store) GetTaskByID(id string) (domain.Task, error) {
	t, ok := s.tasks[id]
	if !ok {
		return domain.Task{}, domain.ErrTaskNotFound
	}
	return t.Clone(), nil
}

// GetAllTasks returns a snapshot ordered by id sequence.
func (s *Store) GetAllTasks() []domain.Task {
	return s.filter(func(domain.Task) bool { return true })
}

// GetTaskIDs returns every id ordered by sequence.
func (s *Store) GetTaskIDs() []string {
	all := s.GetAllTasks()
	ids := make([]string, len(all))
	for i, t := range all {
		ids[i] = t.ID
	}
	return ids
}

func (s *Store) GetNumTasks() int {
	return len(s.tasks)
}

// GetTodaysTasks returns tasks due on the current calendar day.
func (s *Store) GetTodaysTasks() []domain.Task {
	start := s.startOfToday()
	end := start.AddDate(0, 0, 1)
	return s.filter(func(t domain.Task) bool {
		return inRange(t.DueDate, start, end)
	})
}

// GetWeeksTasks returns tasks due from the start of today to the end of the
// current week, ordered by due date. Days of the week already elapsed are excluded.
func (s *Store) GetWeeksTasks() []domain.Task {
	today := s.startOfToday()
	offset := (int(today.Weekday()) - int(s.weekStart) + 7) % 7
	end := today.AddDate(0, 0, 7-offset)
	return SortByDueDate(s.filter(func(t domain.Task) bool {
		return inRange(t.DueDate, today, end)
	}))
}

func (s *Store) GetCompletedTasks() []domain.Task {
	return s.filter(func(t domain.Task) bool { return t.Completed })
}

func (s *Store) GetPendingTasks() []domain.Task {
	return s.filter(func(t domain.Task) bool { return !t.Completed })
}

// GetOverdueTasks returns pending tasks due before today, oldest first.
func (s *Store) GetOverdueTasks() []domain.Task {
	today := s.startOfToday()
	return SortByDueDate(s.filter(func(t domain.Task) bool {
		return !t.Completed && t.DueDate.Before(today)
	}))
}

// NextDue returns the pending task with the earliest due date that has not passed yet.
func (s *Store) NextDue() (domain.Task, bool) {
	now := s.now()
	upcoming := SortByDueDate(s.filter(func(t domain.Task) bool {
		return !t.Completed && !t.DueDate.Before(now)
	}))
	if len(upcoming) == 0 {
		return domain.Task{}, false
	}
	return upcoming[0], true
}

// SortByDueDate returns a new slice ordered by ascending due date. Ties keep input order.
func SortByDueDate(tasks []domain.Task) []domain.Task {
	out := clone(tasks)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DueDate.Before(out[j].DueDate)
	})
	return out
}

// SortByImportance returns a new slice ordered by descending importance. Ties keep input order.
func SortByImportance(tasks []domain.Task) []domain.Task {
	out := clone(tasks)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Importance > out[j].Importance
	})
	return out
}

func (s *Store) SortByDueDate(tasks []domain.Task) []domain.Task {
	return SortByDueDate(tasks)
}

func (s *Store) SortByImportance(tasks []domain.Task) []domain.Task {
	return SortByImportance(tasks)
}

func (s *Store) filter(keep func(domain.Task) bool) []domain.Task {
	out := make([]domain.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if keep(t) {
			out = append(out, t.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := domain.TaskSeq(out[i].ID)
		b, _ := domain.TaskSeq(out[j].ID)
		return a < b
	})
	return out
}

func (s *Store) startOfToday() time.Time {
	now := s.now().In(s.loc)
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}

func clone(tasks []domain.Task) []domain.Task {
	out := make([]domain.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
