package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"go-todo-client/internal/model"
)

// ValidationError lists every rejected field of a request body. Handlers
// render it as a 422 with one issue per field.
type ValidationError struct {
	Issues []model.ValidationIssue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, fmt.Sprintf("%v: %s", issue.Loc[len(issue.Loc)-1], issue.Msg))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

type validator struct {
	issues []model.ValidationIssue
}

func (v *validator) add(field string, kind string, msg string) {
	v.issues = append(v.issues, model.ValidationIssue{Loc: []any{"body", field}, Msg: msg, Type: kind})
}

func (v *validator) length(field string, value string, min int, max int) {
	n := utf8.RuneCountInString(value)
	switch {
	case n < min:
		v.add(field, "string_too_short", fmt.Sprintf("String should have at least %d characters", min))
	case n > max:
		v.add(field, "string_too_long", fmt.Sprintf("String should have at most %d characters", max))
	}
}

func (v *validator) between(field string, value int, min int, max int) {
	switch {
	case value < min:
		v.add(field, "greater_than_equal", fmt.Sprintf("Input should be greater than or equal to %d", min))
	case value > max:
		v.add(field, "less_than_equal", fmt.Sprintf("Input should be less than or equal to %d", max))
	}
}

func (v *validator) err() error {
	if len(v.issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: v.issues}
}
