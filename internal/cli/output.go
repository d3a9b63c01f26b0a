package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fastygo/tasktracker/domain"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

const dueLayout = "Mon 2006-01-02 15:04"

func checkFormat(f string) error {
	switch f {
	case formatTable, formatJSON, formatYAML:
		return nil
	}
	return fmt.Errorf("unknown output format %q (want table, json or yaml)", f)
}

// render writes v as JSON or YAML, or calls table for the table format.
func (a *app) render(v any, table func(w io.Writer)) error {
	out := a.env.Out
	switch a.output {
	case formatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		table(tw)
		return tw.Flush()
	}
}

func importanceLabel(n int) string {
	switch n {
	case domain.ImportanceHigh:
		return "high"
	case domain.ImportanceMedium:
		return "medium"
	default:
		return "low"
	}
}

func doneMark(completed bool) string {
	if completed {
		return "x"
	}
	return " "
}

func taskTable(tasks []domain.Task, loc *time.Location) func(io.Writer) {
	return func(w io.Writer) {
		fmt.Fprintln(w, "ID\tDONE\tIMPORTANCE\tDUE\tDESCRIPTION\tPROJECTS")
		for _, t := range tasks {
			fmt.Fprintf(w, "%s\t[%s]\t%s\t%s\t%s\t%s\n",
				t.ID,
				doneMark(t.Completed),
				importanceLabel(t.Importance),
				t.DueDate.In(loc).Format(dueLayout),
				t.Description,
				strings.Join(t.Projects, ","),
			)
		}
	}
}

func taskDetail(t domain.Task, loc *time.Location) func(io.Writer) {
	return func(w io.Writer) {
		fmt.Fprintf(w, "ID:\t%s\n", t.ID)
		fmt.Fprintf(w, "Description:\t%s\n", t.Description)
		fmt.Fprintf(w, "Importance:\t%s\n", importanceLabel(t.Importance))
		fmt.Fprintf(w, "Due:\t%s\n", t.DueDate.In(loc).Format(dueLayout))
		fmt.Fprintf(w, "Completed:\t%t\n", t.Completed)
		if t.Notes != "" {
			fmt.Fprintf(w, "Notes:\t%s\n", t.Notes)
		}
		if len(t.Projects) > 0 {
			fmt.Fprintf(w, "Projects:\t%s\n", strings.Join(t.Projects, ", "))
		}
	}
}

func projectTable(projects []domain.Project) func(io.Writer) {
	return func(w io.Writer) {
		fmt.Fprintln(w, "NAME\tTASKS\tDESCRIPTION")
		for _, p := range projects {
			fmt.Fprintf(w, "%s\t%d\t%s\n", p.Name, len(p.Tasks), p.Description)
		}
	}
}
