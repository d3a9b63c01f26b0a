package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	authUC "github.com/fastygo/tasktracker/usecase/auth"
)

func exportCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Dump every task and project",
		Long:  "Dump every task and project. Defaults to JSON unless --output is given.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("output") {
				a.output = formatJSON
			}
			if file != "" {
				f, err := os.Create(file)
				if err != nil {
					return err
				}
				defer f.Close()
				a.env.Out = f
			}

			snap := a.tracker.Snapshot()
			return a.render(snap, func(w io.Writer) {
				fmt.Fprintf(w, "exported at %s\n\n", snap.ExportedAt.In(a.loc).Format(time.RFC3339))
				taskTable(snap.Tasks, a.loc)(w)
				fmt.Fprintln(w)
				projectTable(snap.Projects)(w)
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Write to a file instead of stdout")
	return cmd
}

func wipeCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Delete all tasks and projects and reset task ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to wipe without --yes")
			}
			if err := a.tracker.Wipe(); err != nil {
				return err
			}
			return a.render(map[string]bool{"wiped": true}, func(w io.Writer) {
				fmt.Fprintln(w, "all tasks and projects deleted")
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the wipe")
	return cmd
}

func tokenCmd(a *app) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:         "token",
		Short:       "Issue a bearer token for the HTTP API",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipStore: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			issuer := authUC.New(a.cfg.JWT.Secret, a.cfg.JWT.Issuer, a.logger)
			token, err := issuer.Issue(subject, ttl)
			if err != nil {
				return err
			}
			return a.render(token, func(w io.Writer) {
				fmt.Fprintln(w, token.Value)
			})
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "owner", "Token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
