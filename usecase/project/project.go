package project

import (
	"encoding/json"
	"errors"
	"slices"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/tasktracker/domain"
	"github.com/fastygo/tasktracker/internal/infrastructure/kv"
	"github.com/fastygo/tasktracker/usecase"
)

// Store owns the project collection and keeps task membership reciprocal.
// It is not safe for concurrent use.
type Store struct {
	kv       kv.Store
	tasks    usecase.TaskMembership
	projects map[string]domain.Project
	logger   *zap.Logger
}

// New rehydrates persisted projects. Member ids the task store no longer knows are dropped.
func New(store kv.Store, tasks usecase.TaskMembership, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		kv:       store,
		tasks:    tasks,
		projects: make(map[string]domain.Project),
		logger:   logger,
	}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Key returns the persisted key for a project name.
func Key(name string) string {
	return domain.ProjectKeyPrefix + name
}

// AddNewProject creates a project. Existing names are rejected without changes.
func (s *Store) AddNewProject(name, description string) (domain.Project, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Project{}, domain.NewValidationError([]domain.FieldError{{Field: "name", Reason: "must not be empty"}})
	}
	if _, exists := s.projects[name]; exists {
		return domain.Project{}, domain.ErrDuplicateName
	}
	p := domain.Project{Name: name, Description: description, Tasks: []string{}}
	if err := s.persist(p); err != nil {
		return domain.Project{}, err
	}
	s.projects[name] = p
	s.logger.Debug("project created", zap.String("project", name))
	return p.Clone(), nil
}

// AddTask puts taskID in the project and the project in the task's membership list.
func (s *Store) AddTask(name, taskID string) error {
	current, ok := s.projects[name]
	if !ok {
		return domain.ErrProjectNotFound
	}
	if !s.tasks.HasTask(taskID) {
		return domain.ErrTaskNotFound
	}
	if current.HasTask(taskID) {
		return s.tasks.AddProject(taskID, name)
	}

	next := current.Clone()
	next.Tasks = append(next.Tasks, taskID)
	if err := s.persist(next); err != nil {
		return err
	}
	if err := s.tasks.AddProject(taskID, name); err != nil {
		s.restore(current)
		return err
	}
	s.projects[name] = next
	return nil
}

// RemoveTask is the inverse of AddTask.
func (s *Store) RemoveTask(name, taskID string) error {
	current, ok := s.projects[name]
	if !ok {
		return domain.ErrProjectNotFound
	}
	if !current.HasTask(taskID) {
		return domain.ErrNotMember
	}

	next := current.Clone()
	next.Tasks = slices.DeleteFunc(next.Tasks, func(id string) bool { return id == taskID })
	if err := s.persist(next); err != nil {
		return err
	}
	if err := s.tasks.RemoveProject(taskID, name); err != nil && !errors.Is(err, domain.ErrTaskNotFound) {
		s.restore(current)
		return err
	}
	s.projects[name] = next
	return nil
}

// Delete removes the project and its name from every member task.
// On failure, detached tasks get their previous records back unchanged.
func (s *Store) Delete(name string) error {
	current, ok := s.projects[name]
	if !ok {
		return domain.ErrProjectNotFound
	}

	var saved []domain.Task
	undo := func() {
		if err := s.tasks.Restore(saved); err != nil {
			s.logger.Error("failed to restore task membership", zap.String("project", name), zap.Error(err))
		}
	}

	for _, id := range current.Tasks {
		before, err := s.tasks.GetTaskByID(id)
		if errors.Is(err, domain.ErrTaskNotFound) {
			continue
		}
		if err != nil {
			undo()
			return err
		}
		if err := s.tasks.RemoveProject(id, name); err != nil {
			undo()
			return err
		}
		saved = append(saved, before)
	}
	if err := s.kv.Remove(Key(name)); err != nil {
		undo()
		return domain.StorageError("remove project", err)
	}
	delete(s.projects, name)
	s.logger.Debug("project deleted", zap.String("project", name), zap.Int("tasks", len(saved)))
	return nil
}

// RemoveTaskFromAllProjects drops taskID from every project that lists it.
// Either every affected project is updated or none is.
func (s *Store) RemoveTaskFromAllProjects(taskID string) error {
	var originals, updated []domain.Project
	for _, name := range s.GetAllProjectNames() {
		p := s.projects[name]
		if !p.HasTask(taskID) {
			continue
		}
		next := p.Clone()
		next.Tasks = slices.DeleteFunc(next.Tasks, func(id string) bool { return id == taskID })
		if err := s.persist(next); err != nil {
			for _, orig := range originals {
				s.restore(orig)
			}
			return err
		}
		originals = append(originals, p)
		updated = append(updated, next)
	}
	for _, p := range updated {
		s.projects[p.Name] = p
	}
	return nil
}

// GetProject returns a copy of the named project.
func (s *Store) GetProject(name string) (domain.Project, error) {
	p, ok := s.projects[name]
	if !ok {
		return domain.Project{}, domain.ErrProjectNotFound
	}
	return p.Clone(), nil
}

// GetAllProjects returns every project ordered by name.
func (s *Store) GetAllProjects() []domain.Project {
	names := s.GetAllProjectNames()
	out := make([]domain.Project, len(names))
	for i, name := range names {
		out[i] = s.projects[name].Clone()
	}
	return out
}

func (s *Store) GetAllProjectNames() []string {
	names := make([]string, 0, len(s.projects))
	for name := range s.projects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetProjectTasks returns member task ids in insertion order.
func (s *Store) GetProjectTasks(name string) ([]string, error) {
	p, ok := s.projects[name]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	return p.Clone().Tasks, nil
}

// WipeMemory removes every project record.
func (s *Store) WipeMemory() error {
	if err := kv.RemovePrefix(s.kv, domain.ProjectKeyPrefix); err != nil {
		if rerr := s.reload(); rerr != nil {
			s.logger.Error("failed to re-sync projects after wipe failure", zap.Error(rerr))
		}
		return domain.StorageError("wipe projects", err)
	}
	s.projects = make(map[string]domain.Project)
	s.logger.Info("project store wiped")
	return nil
}

// Reload discards memory and rebuilds it from storage.
func (s *Store) Reload() error {
	return s.reload()
}

// Restore writes saved project records back as they were. Every record is
// attempted; failures are joined.
func (s *Store) Restore(saved []domain.Project) error {
	var errs []error
	for _, p := range saved {
		if err := s.persist(p); err != nil {
			errs = append(errs, err)
			continue
		}
		s.projects[p.Name] = p.Clone()
	}
	return errors.Join(errs...)
}

func (s *Store) persist(p domain.Project) error {
	if p.Tasks == nil {
		p.Tasks = []string{}
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return domain.StorageError("encode project", err)
	}
	if err := s.kv.Set(Key(p.Name), string(raw)); err != nil {
		return domain.StorageError("persist project", err)
	}
	return nil
}

// restore re-persists a previous version after a later step failed.
func (s *Store) restore(p domain.Project) {
	if err := s.persist(p); err != nil {
		s.logger.Error("failed to restore project record", zap.String("project", p.Name), zap.Error(err))
	}
}

func (s *Store) reload() error {
	keys, err := kv.KeysWithPrefix(s.kv, domain.ProjectKeyPrefix)
	if err != nil {
		return domain.StorageError("list projects", err)
	}

	projects := make(map[string]domain.Project, len(keys))
	for _, key := range keys {
		raw, ok, err := s.kv.Get(key)
		if err != nil {
			return domain.StorageError("load project", err)
		}
		if !ok {
			continue
		}
		var p domain.Project
		if err := json.Unmarshal([]byte(raw), &p); err != nil || Key(p.Name) != key {
			s.logger.Warn("skipping unreadable project record", zap.String("key", key), zap.Error(err))
			continue
		}
		p = p.Clone()
		if s.tasks != nil {
			p = s.dropDangling(p)
		}
		projects[p.Name] = p
	}

	s.projects = projects
	s.logger.Info("projects loaded", zap.Int("count", len(projects)))
	return nil
}

func (s *Store) dropDangling(p domain.Project) domain.Project {
	kept := slices.DeleteFunc(slices.Clone(p.Tasks), func(id string) bool { return !s.tasks.HasTask(id) })
	if len(kept) == len(p.Tasks) {
		return p
	}
	s.logger.Warn("dropping unknown tasks from project",
		zap.String("project", p.Name), zap.Int("dropped", len(p.Tasks)-len(kept)))
	repaired := p
	repaired.Tasks = kept
	if err := s.persist(repaired); err != nil {
		s.logger.Warn("failed to persist repaired project", zap.String("project", p.Name), zap.Error(err))
	}
	return repaired
}
