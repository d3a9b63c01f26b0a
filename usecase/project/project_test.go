package project

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/tasktracker/domain"
	"github.com/fastygo/tasktracker/internal/infrastructure/kv"
	"github.com/fastygo/tasktracker/internal/testutil"
	"github.com/fastygo/tasktracker/usecase/task"
)

type fixture struct {
	kv       kv.Store
	tasks    *task.Store
	projects *Store
}

func newFixture(t *testing.T, store kv.Store) fixture {
	t.Helper()
	tasks, err := task.New(store, nil, task.WithLocation(time.UTC))
	require.NoError(t, err)
	projects, err := New(store, tasks, nil)
	require.NoError(t, err)
	tasks.AttachProjects(projects)
	return fixture{kv: store, tasks: tasks, projects: projects}
}

func (f fixture) addTask(t *testing.T, description string) string {
	t.Helper()
	created, err := f.tasks.AddNewTask(description, 1, time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC), "", false)
	require.NoError(t, err)
	return created.ID
}

func TestStore_AddNewProject_RejectsDuplicate(t *testing.T) {
	f := newFixture(t, kv.NewMemory())

	_, err := f.projects.AddNewProject("Groceries", "")
	require.NoError(t, err)

	_, err = f.projects.AddNewProject("Groceries", "other")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDuplicateName)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeConflict))

	p, err := f.projects.GetProject("Groceries")
	require.NoError(t, err)
	assert.Equal(t, "", p.Description)
	assert.Empty(t, p.Tasks)
}

func TestStore_AddNewProject_NamesAreCaseSensitive(t *testing.T) {
	f := newFixture(t, kv.NewMemory())
	_, err := f.projects.AddNewProject("home", "")
	require.NoError(t, err)
	_, err = f.projects.AddNewProject("Home", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Home", "home"}, f.projects.GetAllProjectNames())
}

func TestStore_AddNewProject_EmptyName(t *testing.T) {
	f := newFixture(t, kv.NewMemory())
	_, err := f.projects.AddNewProject("  ", "")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}

func TestStore_AddTask_IsReciprocal(t *testing.T) {
	f := newFixture(t, kv.NewMemory())
	id := f.addTask(t, "Buy milk")
	_, err := f.projects.AddNewProject("Groceries", "")
	require.NoError(t, err)

	require.NoError(t, f.projects.AddTask("Groceries", id))
	require.NoError(t, f.projects.AddTask("Groceries", id))

	tasks, err := f.projects.GetProjectTasks("Groceries")
	require.NoError(t, err)
	assert.Equal(t, []string{id}, tasks)

	got, _ := f.tasks.GetTaskByID(id)
	assert.Equal(t, []string{"Groceries"}, got.Projects)

	raw, ok, _ := f.kv.Get("proj-Groceries")
	require.True(t, ok)
	assert.JSONEq(t, `{"name":"Groceries","description":"","tasks":["task-0"]}`, raw)
}

func TestStore_AddTask_NotFound(t *testing.T) {
	f := newFixture(t, kv.NewMemory())
	id := f.addTask(t, "x")
	_, _ = f.projects.AddNewProject("P", "")

	assert.ErrorIs(t, f.projects.AddTask("Missing", id), domain.ErrProjectNotFound)
	assert.ErrorIs(t, f.projects.AddTask("P", "task-99"), domain.ErrTaskNotFound)
}

func TestStore_AddTask_TaskWriteFailureRollsBackProject(t *testing.T) {
	flaky := testutil.NewFlakyStore(nil)
	f := newFixture(t, flaky)
	id := f.addTask(t, "x")
	_, err := f.projects.AddNewProject("P", "")
	require.NoError(t, err)

	flaky.FailSetsWithPrefix(domain.TaskIDPrefix)
	err = f.projects.AddTask("P", id)
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeStorage))

	p, _ := f.projects.GetProject("P")
	assert.Empty(t, p.Tasks)
	raw, _, _ := flaky.Get("proj-P")
	assert.JSONEq(t, `{"name":"P","description":"","tasks":[]}`, raw)
}

func TestStore_RemoveTask(t *testing.T) {
	f := newFixture(t, kv.NewMemory())
	a := f.addTask(t, "a")
	b := f.addTask(t, "b")
	_, _ = f.projects.AddNewProject("P", "")
	require.NoError(t, f.projects.AddTask("P", a))
	require.NoError(t, f.projects.AddTask("P", b))

	require.NoError(t, f.projects.RemoveTask("P", a))
	tasks, _ := f.projects.GetProjectTasks("P")
	assert.Equal(t, []string{b}, tasks)
	got, _ := f.tasks.GetTaskByID(a)
	assert.Empty(t, got.Projects)

	assert.ErrorIs(t, f.projects.RemoveTask("P", a), domain.ErrNotMember)
	assert.ErrorIs(t, f.projects.RemoveTask("Nope", a), domain.ErrProjectNotFound)
}

func TestStore_Delete_CleansMembership(t *testing.T) {
	f := newFixture(t, kv.NewMemory())
	id := f.addTask(t, "Buy milk")
	_, _ = f.projects.AddNewProject("Groceries", "")
	_, _ = f.projects.AddNewProject("Errands", "")
	require.NoError(t, f.projects.AddTask("Groceries", id))
	require.NoError(t, f.projects.AddTask("Errands", id))

	require.NoError(t, f.projects.Delete("Groceries"))

	_, err := f.projects.GetProject("Groceries")
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
	_, ok, _ := f.kv.Get("proj-Groceries")
	assert.False(t, ok)

	got, _ := f.tasks.GetTaskByID(id)
	assert.Equal(t, []string{"Errands"}, got.Projects)

	assert.ErrorIs(t, f.projects.Delete("Groceries"), domain.ErrProjectNotFound)
}

func TestStore_Delete_StorageFailureRestoresMembership(t *testing.T) {
	flaky := testutil.NewFlakyStore(nil)
	f := newFixture(t, flaky)
	id := f.addTask(t, "x")
	_, _ = f.projects.AddNewProject("P", "")
	require.NoError(t, f.projects.AddTask("P", id))

	flaky.FailRemoves()
	err := f.projects.Delete("P")
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeStorage))

	got, _ := f.tasks.GetTaskByID(id)
	assert.Equal(t, []string{"P"}, got.Projects)
	p, err := f.projects.GetProject("P")
	require.NoError(t, err)
	assert.Equal(t, []string{id}, p.Tasks)
}

func TestStore_Delete_StorageFailureKeepsMembershipOrder(t *testing.T) {
	flaky := testutil.NewFlakyStore(nil)
	f := newFixture(t, flaky)
	id := f.addTask(t, "x")
	other := f.addTask(t, "y")
	for _, name := range []string{"A", "B", "C"} {
		_, err := f.projects.AddNewProject(name, "")
		require.NoError(t, err)
		require.NoError(t, f.projects.AddTask(name, id))
	}
	require.NoError(t, f.projects.AddTask("A", other))
	persisted := testutil.Snapshot(flaky)

	flaky.FailRemoves()
	err := f.projects.Delete("A")
	require.Error(t, err)

	got, _ := f.tasks.GetTaskByID(id)
	assert.Equal(t, []string{"A", "B", "C"}, got.Projects)
	got, _ = f.tasks.GetTaskByID(other)
	assert.Equal(t, []string{"A"}, got.Projects)
	assert.Equal(t, persisted, testutil.Snapshot(flaky))
}

func TestStore_TaskDeleteRemovesFromAllProjects(t *testing.T) {
	f := newFixture(t, kv.NewMemory())
	a := f.addTask(t, "a")
	b := f.addTask(t, "b")
	for _, name := range []string{"One", "Two", "Three"} {
		_, err := f.projects.AddNewProject(name, "")
		require.NoError(t, err)
		require.NoError(t, f.projects.AddTask(name, a))
	}
	require.NoError(t, f.projects.AddTask("Two", b))

	require.NoError(t, f.tasks.Delete(a))

	for _, p := range f.projects.GetAllProjects() {
		assert.NotContains(t, p.Tasks, a, p.Name)
	}
	two, _ := f.projects.GetProjectTasks("Two")
	assert.Equal(t, []string{b}, two)

	reloaded := newFixture(t, f.kv)
	for _, p := range reloaded.projects.GetAllProjects() {
		assert.NotContains(t, p.Tasks, a, p.Name)
	}
}

func TestStore_RemoveTaskFromAllProjects_IsAllOrNothing(t *testing.T) {
	flaky := testutil.NewFlakyStore(nil)
	f := newFixture(t, flaky)
	id := f.addTask(t, "x")
	for _, name := range []string{"A", "B"} {
		_, _ = f.projects.AddNewProject(name, "")
		require.NoError(t, f.projects.AddTask(name, id))
	}

	// The first project write succeeds, the second fails; the restore of A must then succeed.
	flaky.FailSetsWithPrefix("proj-B")
	err := f.projects.RemoveTaskFromAllProjects(id)
	require.Error(t, err)

	for _, name := range []string{"A", "B"} {
		tasks, _ := f.projects.GetProjectTasks(name)
		assert.Equal(t, []string{id}, tasks, name)
	}
	raw, _, _ := flaky.Get("proj-A")
	assert.JSONEq(t, `{"name":"A","description":"","tasks":["task-0"]}`, raw)
}

func TestStore_ReloadDropsDanglingTaskIDs(t *testing.T) {
	mem := kv.NewMemory()
	require.NoError(t, mem.Set("proj-Old", `{"name":"Old","description":"d","tasks":["task-7"]}`))
	require.NoError(t, mem.Set("proj-Broken", `{`))

	f := newFixture(t, mem)
	p, err := f.projects.GetProject("Old")
	require.NoError(t, err)
	assert.Empty(t, p.Tasks)
	assert.Equal(t, []string{"Old"}, f.projects.GetAllProjectNames())

	raw, _, _ := mem.Get("proj-Old")
	assert.JSONEq(t, `{"name":"Old","description":"d","tasks":[]}`, raw)
}

func TestStore_WipeMemory(t *testing.T) {
	f := newFixture(t, kv.NewMemory())
	id := f.addTask(t, "x")
	_, _ = f.projects.AddNewProject("P", "")
	require.NoError(t, f.projects.AddTask("P", id))

	require.NoError(t, f.projects.WipeMemory())
	assert.Empty(t, f.projects.GetAllProjects())
	keys, _ := kv.KeysWithPrefix(f.kv, domain.ProjectKeyPrefix)
	assert.Empty(t, keys)
	assert.True(t, f.tasks.HasTask(id))
}
