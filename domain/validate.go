package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"
)

// Updatable task fields as they appear in partial updates.
const (
	FieldDescription = "description"
	FieldImportance  = "importance"
	FieldDueDate     = "dueDate"
	FieldNotes       = "notes"
	FieldCompleted   = "completed"
)

var taskFields = map[string]struct{}{
	FieldDescription: {},
	FieldImportance:  {},
	FieldDueDate:     {},
	FieldNotes:       {},
	FieldCompleted:   {},
}

// DueDateLayouts are the textual forms accepted for due dates.
var DueDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ValidateField checks a single task field. It returns nil when value is acceptable.
func ValidateField(name string, value any) *FieldError {
	var reason string
	switch name {
	case FieldDescription, FieldNotes:
		if _, ok := value.(string); !ok {
			reason = "must be a string"
		}
	case FieldImportance:
		n, ok := AsInt(value)
		switch {
		case !ok:
			reason = "must be an integer"
		case n < ImportanceLow || n > ImportanceHigh:
			reason = "must be 0, 1 or 2"
		}
	case FieldDueDate:
		if _, ok := AsTime(value, time.Local); !ok {
			reason = "must be a valid date/time"
		}
	case FieldCompleted:
		if _, ok := value.(bool); !ok {
			reason = "must be a boolean"
		}
	default:
		reason = "unknown field"
	}
	if reason == "" {
		return nil
	}
	return &FieldError{Field: name, Reason: reason}
}

// ValidateRecord validates a partial task record, rejecting unknown keys.
// All violations are collected into a single error. An empty record is valid.
func ValidateRecord(fields map[string]any) error {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var violations []FieldError
	for _, name := range names {
		if _, ok := taskFields[name]; !ok {
			violations = append(violations, FieldError{Field: name, Reason: "unknown field"})
			continue
		}
		if fe := ValidateField(name, fields[name]); fe != nil {
			violations = append(violations, *fe)
		}
	}
	if len(violations) > 0 {
		return NewValidationError(violations)
	}
	return nil
}

// ValidateTask checks every field of a complete task before creation.
func ValidateTask(t Task) error {
	return ValidateRecord(map[string]any{
		FieldDescription: t.Description,
		FieldImportance:  t.Importance,
		FieldDueDate:     t.DueDate,
		FieldNotes:       t.Notes,
		FieldCompleted:   t.Completed,
	})
}

// AsInt accepts Go integer kinds plus integral float64 and json.Number values,
// which is what decoded JSON produces.
func AsInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int8:
		return int(v), true
	case int16:
		return int(v), true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case uint:
		return int(v), true
	case uint8:
		return int(v), true
	case uint16:
		return int(v), true
	case uint32:
		return int(v), true
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int(v), true
	case float32:
		return AsInt(float64(v))
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

// AsTime accepts a non-zero time.Time or a string in one of DueDateLayouts.
// Layouts without an offset are interpreted in loc.
func AsTime(value any, loc *time.Location) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, !v.IsZero()
	case *time.Time:
		if v == nil || v.IsZero() {
			return time.Time{}, false
		}
		return *v, true
	case string:
		t, err := ParseDueDate(v, loc)
		return t, err == nil
	default:
		return time.Time{}, false
	}
}

// ParseDueDate parses s with the first matching layout in DueDateLayouts.
func ParseDueDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range DueDateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date/time %q", s)
}
