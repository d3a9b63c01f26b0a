package cli

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/fastygo/tasktracker/domain"
	"github.com/fastygo/tasktracker/internal/config"
	"github.com/fastygo/tasktracker/internal/infrastructure/kv"
	"github.com/fastygo/tasktracker/internal/testutil"
	authUC "github.com/fastygo/tasktracker/usecase/auth"
	"github.com/fastygo/tasktracker/usecase/tracker"
)

type harness struct {
	cfg   *config.Config
	store kv.Store
}

func newHarness() *harness {
	return &harness{
		cfg: &config.Config{
			Logger:   config.LoggerConfig{Level: "error"},
			Schedule: config.ScheduleConfig{Timezone: "UTC", WeekStartsOn: time.Sunday},
			JWT:      config.JWTConfig{Issuer: "tasktracker"},
		},
		store: kv.NewMemory(),
	}
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand(Env{
		Out:    &out,
		Err:    &bytes.Buffer{},
		Config: h.cfg,
		Store:  h.store,
		Now:    testutil.FixedClock(time.Date(2024, 6, 12, 10, 0, 0, 0, time.UTC)),
	})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func (h *harness) mustJSON(t *testing.T, v any, args ...string) {
	t.Helper()
	out, err := h.run(t, append(args, "-o", "json")...)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), v), out)
}

func TestTaskCommands(t *testing.T) {
	h := newHarness()

	var created domain.Task
	h.mustJSON(t, &created, "task", "add", "Buy", "milk", "--due", "2024-06-12T18:00", "-i", "1")
	assert.Equal(t, "task-0", created.ID)
	assert.Equal(t, "Buy milk", created.Description)
	assert.True(t, created.DueDate.Equal(time.Date(2024, 6, 12, 18, 0, 0, 0, time.UTC)))

	_, err := h.run(t, "task", "add", "no due")
	assert.Error(t, err)
	_, err = h.run(t, "task", "add", "bad", "--due", "soon")
	assert.Error(t, err)

	out, err := h.run(t, "task", "list", "--view", "today")
	require.NoError(t, err)
	assert.Contains(t, out, "task-0")
	assert.Contains(t, out, "Buy milk")
	assert.Contains(t, out, "medium")

	out, err = h.run(t, "task", "list", "--view", "today", "-o", "yaml")
	require.NoError(t, err)
	var listed []domain.Task
	require.NoError(t, yaml.Unmarshal([]byte(out), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "task-0", listed[0].ID)

	var updated domain.Task
	h.mustJSON(t, &updated, "task", "update", "task-0", "--completed")
	assert.True(t, updated.Completed)
	assert.Equal(t, "Buy milk", updated.Description)
	assert.Equal(t, 1, updated.Importance)

	out, err = h.run(t, "task", "update", "task-0")
	require.NoError(t, err)
	assert.Contains(t, out, "Buy milk")

	_, err = h.run(t, "task", "update", "task-0", "-i", "9")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	var toggled domain.Task
	h.mustJSON(t, &toggled, "task", "done", "task-0")
	assert.False(t, toggled.Completed)

	out, err = h.run(t, "next")
	require.NoError(t, err)
	assert.Contains(t, out, "task-0")

	_, err = h.run(t, "task", "rm", "task-0")
	require.NoError(t, err)
	_, err = h.run(t, "task", "show", "task-0")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	out, err = h.run(t, "next")
	require.NoError(t, err)
	assert.Contains(t, out, "nothing due")
}

func TestProjectCommands(t *testing.T) {
	h := newHarness()
	var created domain.Task
	h.mustJSON(t, &created, "task", "add", "Buy milk", "--due", "2024-06-13")

	_, err := h.run(t, "project", "add", "Groceries", "-D", "food")
	require.NoError(t, err)
	_, err = h.run(t, "project", "add", "Groceries")
	assert.ErrorIs(t, err, domain.ErrDuplicateName)

	var p domain.Project
	h.mustJSON(t, &p, "project", "add-task", "Groceries", created.ID)
	assert.Equal(t, []string{created.ID}, p.Tasks)

	out, err := h.run(t, "project", "show", "Groceries")
	require.NoError(t, err)
	assert.Contains(t, out, "Groceries")
	assert.Contains(t, out, "Buy milk")

	_, err = h.run(t, "project", "remove-task", "Groceries", created.ID)
	require.NoError(t, err)
	_, err = h.run(t, "project", "remove-task", "Groceries", created.ID)
	assert.ErrorIs(t, err, domain.ErrNotMember)

	var projects []domain.Project
	h.mustJSON(t, &projects, "project", "list")
	require.Len(t, projects, 1)
	assert.Equal(t, "food", projects[0].Description)

	_, err = h.run(t, "project", "rm", "Groceries")
	require.NoError(t, err)
	_, err = h.run(t, "project", "show", "Groceries")
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
}

func TestExportAndWipe(t *testing.T) {
	h := newHarness()
	var created domain.Task
	h.mustJSON(t, &created, "task", "add", "x", "--due", "2024-06-13")
	_, err := h.run(t, "project", "add", "P")
	require.NoError(t, err)

	out, err := h.run(t, "export")
	require.NoError(t, err)
	var snap tracker.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Len(t, snap.Tasks, 1)
	assert.Len(t, snap.Projects, 1)

	_, err = h.run(t, "wipe")
	assert.Error(t, err)
	assert.NotEmpty(t, testutil.Snapshot(h.store))

	_, err = h.run(t, "wipe", "--yes")
	require.NoError(t, err)
	assert.Empty(t, testutil.Snapshot(h.store))

	var again domain.Task
	h.mustJSON(t, &again, "task", "add", "y", "--due", "2024-06-13")
	assert.Equal(t, "task-0", again.ID)
}

func TestTokenCommand(t *testing.T) {
	h := newHarness()
	_, err := h.run(t, "token")
	assert.Error(t, err)

	h.cfg.JWT.Secret = "secret"
	var token authUC.Token
	h.mustJSON(t, &token, "token", "--subject", "me")

	subject, err := authUC.New("secret", "tasktracker", nil).Verify(token.Value)
	require.NoError(t, err)
	assert.Equal(t, "me", subject)
}

func TestRejectsUnknownOutput(t *testing.T) {
	_, err := newHarness().run(t, "task", "list", "-o", "xml")
	assert.Error(t, err)
}
