// Package cli implements the tracker command line. Every command runs
// against the same storage the server uses.
package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fastygo/tasktracker/internal/config"
	"github.com/fastygo/tasktracker/internal/infrastructure/kv"
	"github.com/fastygo/tasktracker/pkg/logger"
	"github.com/fastygo/tasktracker/usecase/task"
	"github.com/fastygo/tasktracker/usecase/tracker"
)

// skipStore marks commands that never touch the data.
const skipStore = "skip-store"

// Env lets callers supply the pieces a command would otherwise build from
// the environment.
type Env struct {
	Out    io.Writer
	Err    io.Writer
	Config *config.Config
	Store  kv.Store
	Now    func() time.Time
}

type app struct {
	env     Env
	output  string
	cfg     *config.Config
	loc     *time.Location
	logger  *zap.Logger
	store   kv.Store
	ownsKV  bool
	tracker *tracker.Tracker
}

// NewRootCommand builds the command tree.
func NewRootCommand(env Env) *cobra.Command {
	if env.Out == nil {
		env.Out = os.Stdout
	}
	if env.Err == nil {
		env.Err = os.Stderr
	}
	a := &app{env: env}

	root := &cobra.Command{
		Use:                "tracker",
		Short:              "Personal task tracker",
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.finish,
	}
	root.SetOut(env.Out)
	root.SetErr(env.Err)

	root.PersistentFlags().StringVarP(&a.output, "output", "o", formatTable, "Output format: table, json or yaml")

	root.AddCommand(taskCmd(a))
	root.AddCommand(projectCmd(a))
	root.AddCommand(nextCmd(a))
	root.AddCommand(exportCmd(a))
	root.AddCommand(wipeCmd(a))
	root.AddCommand(tokenCmd(a))
	return root
}

// Execute runs the CLI against the configured store.
func Execute(version string) error {
	root := NewRootCommand(Env{})
	root.Version = version
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	if err := checkFormat(a.output); err != nil {
		return err
	}

	a.cfg = a.env.Config
	if a.cfg == nil {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		a.cfg = cfg
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    a.cfg.Logger.Level,
		Encoding: "console",
		Stderr:   true,
	})
	if err != nil {
		return fmt.Errorf("logger error: %w", err)
	}
	a.logger = zapLogger

	loc, err := a.cfg.Location()
	if err != nil {
		return err
	}
	a.loc = loc

	if cmd.Annotations[skipStore] != "" {
		return nil
	}

	a.store = a.env.Store
	if a.store == nil {
		store, err := kv.Open(cmd.Context(), a.cfg, a.logger)
		if err != nil {
			return fmt.Errorf("open %s store: %w", a.cfg.Store.Driver, err)
		}
		a.store = store
		a.ownsKV = true
	}

	opts := []task.Option{task.WithLocation(loc), task.WithWeekStart(a.cfg.Schedule.WeekStartsOn)}
	if a.env.Now != nil {
		opts = append(opts, task.WithClock(a.env.Now))
	}
	tr, err := tracker.New(a.store, a.logger, opts...)
	if err != nil {
		_ = a.teardown()
		return err
	}
	a.tracker = tr
	return nil
}

func (a *app) finish(cmd *cobra.Command, args []string) error {
	return a.teardown()
}

func (a *app) teardown() error {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if a.ownsKV && a.store != nil {
		a.ownsKV = false
		return a.store.Close()
	}
	return nil
}
