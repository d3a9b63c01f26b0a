package task

import (
	"errors"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/tasktracker/domain"
	"github.com/fastygo/tasktracker/internal/infrastructure/kv"
	"github.com/fastygo/tasktracker/usecase"
)

// Option customizes a Store.
type Option func(*Store)

// WithClock replaces time.Now for date queries.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation sets the zone used to decide calendar days.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithWeekStart sets the first day of the calendar week.
func WithWeekStart(day time.Weekday) Option {
	return func(s *Store) {
		s.weekStart = day
	}
}

// WithNotifier registers the due-date change hook.
func WithNotifier(fn usecase.ChangeNotifier) Option {
	return func(s *Store) {
		s.notify = fn
	}
}

// Store owns the task collection. It is not safe for concurrent use.
type Store struct {
	kv        kv.Store
	ids       *Allocator
	tasks     map[string]domain.Task
	projects  usecase.ProjectIndex
	notify    usecase.ChangeNotifier
	now       func() time.Time
	loc       *time.Location
	weekStart time.Weekday
	logger    *zap.Logger
}

// New rehydrates every persisted task from store.
func New(store kv.Store, logger *zap.Logger, opts ...Option) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		kv:        store,
		tasks:     make(map[string]domain.Task),
		now:       time.Now,
		loc:       time.Local,
		weekStart: time.Sunday,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// AttachProjects wires the project-side cleanup used by Delete.
func (s *Store) AttachProjects(idx usecase.ProjectIndex) {
	s.projects = idx
}

// SetNotifier replaces the due-date change hook.
func (s *Store) SetNotifier(fn usecase.ChangeNotifier) {
	s.notify = fn
}

// AddNewTask validates, allocates an id, and persists a new task.
func (s *Store) AddNewTask(description string, importance int, dueDate time.Time, notes string, completed bool) (domain.Task, error) {
	t := domain.Task{
		Description: description,
		Importance:  importance,
		DueDate:     dueDate.In(s.loc),
		Notes:       notes,
		Completed:   completed,
		Projects:    []string{},
	}
	if err := domain.ValidateTask(t); err != nil {
		return domain.Task{}, err
	}

	id, err := s.ids.Next()
	if err != nil {
		return domain.Task{}, err
	}
	t.ID = id

	if err := s.persist(t); err != nil {
		// The id stays consumed; ids are never reused.
		return domain.Task{}, err
	}
	s.tasks[id] = t
	s.logger.Debug("task created", zap.String("task_id", id))
	s.changed()
	return t.Clone(), nil
}

// Update applies a partial record. Unknown or invalid fields reject the whole update.
// An empty record changes nothing.
func (s *Store) Update(id string, fields map[string]any) error {
	current, ok := s.tasks[id]
	if !ok {
		return domain.ErrTaskNotFound
	}
	if len(fields) == 0 {
		return nil
	}
	if err := domain.ValidateRecord(fields); err != nil {
		return err
	}

	next := current.Clone()
	for name, value := range fields {
		switch name {
		case domain.FieldDescription:
			next.Description = value.(string)
		case domain.FieldImportance:
			next.Importance, _ = domain.AsInt(value)
		case domain.FieldDueDate:
			due, _ := domain.AsTime(value, s.loc)
			next.DueDate = due.In(s.loc)
		case domain.FieldNotes:
			next.Notes = value.(string)
		case domain.FieldCompleted:
			next.Completed = value.(bool)
		}
	}

	if err := s.persist(next); err != nil {
		return err
	}
	s.tasks[id] = next
	s.logger.Debug("task updated", zap.String("task_id", id), zap.Int("fields", len(fields)))
	s.changed()
	return nil
}

// ToggleComplete flips the completion flag.
func (s *Store) ToggleComplete(id string) error {
	current, ok := s.tasks[id]
	if !ok {
		return domain.ErrTaskNotFound
	}
	next := current.Clone()
	next.Completed = !next.Completed
	if err := s.persist(next); err != nil {
		return err
	}
	s.tasks[id] = next
	s.changed()
	return nil
}

// Delete removes the task from storage, from every project, and from memory.
func (s *Store) Delete(id string) error {
	current, ok := s.tasks[id]
	if !ok {
		return domain.ErrTaskNotFound
	}
	if err := s.kv.Remove(id); err != nil {
		return domain.StorageError("remove task", err)
	}
	if s.projects != nil {
		if err := s.projects.RemoveTaskFromAllProjects(id); err != nil {
			if rerr := s.persist(current); rerr != nil {
				s.logger.Error("failed to restore task after project cleanup failure",
					zap.String("task_id", id), zap.Error(rerr))
			}
			return err
		}
	}
	delete(s.tasks, id)
	s.logger.Debug("task deleted", zap.String("task_id", id))
	s.changed()
	return nil
}

// HasTask reports whether id is a live task.
func (s *Store) HasTask(id string) bool {
	_, ok := s.tasks[id]
	return ok
}

// AddProject records project in the task's membership list.
func (s *Store) AddProject(id, project string) error {
	current, ok := s.tasks[id]
	if !ok {
		return domain.ErrTaskNotFound
	}
	if current.InProject(project) {
		return nil
	}
	next := current.Clone()
	next.Projects = append(next.Projects, project)
	if err := s.persist(next); err != nil {
		return err
	}
	s.tasks[id] = next
	return nil
}

// RemoveProject drops project from the task's membership list.
func (s *Store) RemoveProject(id, project string) error {
	current, ok := s.tasks[id]
	if !ok {
		return domain.ErrTaskNotFound
	}
	if !current.InProject(project) {
		return nil
	}
	next := current.Clone()
	next.Projects = slices.DeleteFunc(next.Projects, func(p string) bool { return p == project })
	if err := s.persist(next); err != nil {
		return err
	}
	s.tasks[id] = next
	return nil
}

// WipeMemory removes every task record and the id counter.
// If storage fails midway, memory is re-synced from what remains persisted.
func (s *Store) WipeMemory() error {
	err := kv.RemovePrefix(s.kv, domain.TaskIDPrefix)
	if err == nil {
		err = s.ids.Reset()
	}
	if err != nil {
		if rerr := s.reload(); rerr != nil {
			s.logger.Error("failed to re-sync tasks after wipe failure", zap.Error(rerr))
		}
		if domain.IsDomainError(err, domain.ErrCodeStorage) {
			return err
		}
		return domain.StorageError("wipe tasks", err)
	}
	s.tasks = make(map[string]domain.Task)
	s.logger.Info("task store wiped")
	s.changed()
	return nil
}

// Reload discards memory and rebuilds it from storage.
func (s *Store) Reload() error {
	return s.reload()
}

// Restore writes saved task records back as they were. Every record is
// attempted; failures are joined.
func (s *Store) Restore(saved []domain.Task) error {
	var errs []error
	highest := -1
	for _, t := range saved {
		if err := s.persist(t); err != nil {
			errs = append(errs, err)
			continue
		}
		s.tasks[t.ID] = t.Clone()
		if seq, _ := domain.TaskSeq(t.ID); seq > highest {
			highest = seq
		}
	}
	if highest >= 0 {
		if err := s.ids.EnsureAbove(highest); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SyncMembership makes every task's project list agree with members, which
// maps task ids to the projects that hold them. Surviving entries keep their
// order; missing ones are appended. A repair that cannot be persisted is still
// applied in memory and retried on the next sync.
func (s *Store) SyncMembership(members map[string][]string) {
	for _, id := range s.GetTaskIDs() {
		current := s.tasks[id]
		want := members[id]
		next := slices.DeleteFunc(slices.Clone(current.Projects), func(p string) bool {
			return !slices.Contains(want, p)
		})
		for _, p := range want {
			if !slices.Contains(next, p) {
				next = append(next, p)
			}
		}
		if slices.Equal(next, current.Projects) {
			continue
		}

		repaired := current.Clone()
		repaired.Projects = next
		s.logger.Warn("repairing task membership",
			zap.String("task_id", id),
			zap.Strings("was", current.Projects),
			zap.Strings("now", next),
		)
		if err := s.persist(repaired); err != nil {
			s.logger.Warn("failed to persist repaired task", zap.String("task_id", id), zap.Error(err))
		}
		s.tasks[id] = repaired
	}
}

func (s *Store) persist(t domain.Task) error {
	raw, err := encode(t)
	if err != nil {
		return domain.StorageError("encode task", err)
	}
	if err := s.kv.Set(t.ID, raw); err != nil {
		return domain.StorageError("persist task", err)
	}
	return nil
}

func (s *Store) reload() error {
	ids, err := NewAllocator(s.kv)
	if err != nil {
		return err
	}
	keys, err := kv.KeysWithPrefix(s.kv, domain.TaskIDPrefix)
	if err != nil {
		return domain.StorageError("list tasks", err)
	}

	tasks := make(map[string]domain.Task, len(keys))
	highest := -1
	for _, key := range keys {
		raw, ok, err := s.kv.Get(key)
		if err != nil {
			return domain.StorageError("load task", err)
		}
		if !ok {
			continue
		}
		t, err := decode(raw, s.loc)
		if err != nil || t.ID != key {
			s.logger.Warn("skipping unreadable task record", zap.String("key", key), zap.Error(err))
			continue
		}
		tasks[t.ID] = t
		if seq, _ := domain.TaskSeq(t.ID); seq > highest {
			highest = seq
		}
	}
	if highest >= 0 {
		if err := ids.EnsureAbove(highest); err != nil {
			return err
		}
	}

	s.ids = ids
	s.tasks = tasks
	s.logger.Info("tasks loaded", zap.Int("count", len(tasks)), zap.Int("next_id", ids.Current()))
	return nil
}

func (s *Store) changed() {
	if s.notify != nil {
		s.notify()
	}
}
