package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/fastygo/tasktracker/domain"
)

// TaskRequest is the body of POST /api/v1/tasks.
type TaskRequest struct {
	Description string `json:"description"`
	Importance  int    `json:"importance"`
	DueDate     string `json:"due_date"`
	Notes       string `json:"notes"`
	Completed   bool   `json:"completed"`
}

// Validate checks every field at once, so a bad due date is reported together
// with any other violation. It returns the due date parsed in loc.
func (r TaskRequest) Validate(loc *time.Location) (time.Time, error) {
	var violations []domain.FieldError
	err := domain.ValidateRecord(map[string]any{
		domain.FieldDescription: r.Description,
		domain.FieldImportance:  r.Importance,
		domain.FieldNotes:       r.Notes,
		domain.FieldCompleted:   r.Completed,
	})
	if err != nil {
		var derr *domain.Error
		if !errors.As(err, &derr) {
			return time.Time{}, err
		}
		violations = append(violations, derr.Fields...)
	}

	var due time.Time
	if strings.TrimSpace(r.DueDate) == "" {
		violations = append(violations, domain.FieldError{Field: domain.FieldDueDate, Reason: "must be set"})
	} else if due, err = domain.ParseDueDate(r.DueDate, loc); err != nil {
		violations = append(violations, domain.FieldError{Field: domain.FieldDueDate, Reason: err.Error()})
	}

	if len(violations) > 0 {
		sort.Slice(violations, func(i, j int) bool { return violations[i].Field < violations[j].Field })
		return time.Time{}, domain.NewValidationError(violations)
	}
	return due, nil
}

// ProjectRequest is the body of POST /api/v1/projects.
type ProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// DecodePatch reads a partial task update. Numbers stay json.Number so the
// validator can tell 1 from 1.5. The wire name due_date is accepted for dueDate.
func DecodePatch(body []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("empty body")
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var patch map[string]any
	if err := dec.Decode(&patch); err != nil {
		return nil, err
	}
	if patch == nil {
		return nil, errors.New("body must be a JSON object")
	}
	if v, ok := patch["due_date"]; ok {
		delete(patch, "due_date")
		patch[domain.FieldDueDate] = v
	}
	return patch, nil
}
