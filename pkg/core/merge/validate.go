package merge

import (
	"errors"
	"fmt"
)

// ValidationError reports a statement that violates the structured-statement
// contract. It aborts the merge of the affected statement type; it is distinct
// from "no data".
type ValidationError struct {
	Filing    string
	Statement StatementType
	Path      string
	Reason    string
}

func (e *ValidationError) Error() string {
	loc := e.Path
	if loc == "" {
		loc = "statement"
	}
	if e.Statement != "" {
		loc = string(e.Statement) + "." + loc
	}
	if e.Filing != "" {
		loc = e.Filing + "/" + loc
	}
	return fmt.Sprintf("invalid structured statement at %s: %s", loc, e.Reason)
}

// IsValidationError reports whether err wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Validate checks the shape constraints the merge relies on. A statement with no
// periods or sections is valid; it simply contributes no rows.
func (s *StructuredStatement) Validate() error {
	if s == nil {
		return &ValidationError{Reason: "nil statement"}
	}
	for si, sec := range s.Sections {
		for ii, item := range sec.Items {
			path := fmt.Sprintf("sections[%d].items[%d]", si, ii)
			if item.Label == "" && item.GAAP == "" {
				return &ValidationError{Path: path, Reason: "line item has neither label nor gaap"}
			}
			for p := range item.Values {
				if p == "" {
					return &ValidationError{Path: path + ".values", Reason: "empty period key"}
				}
			}
		}
	}
	for i, p := range s.Periods {
		if p == "" {
			return &ValidationError{Path: fmt.Sprintf("periods[%d]", i), Reason: "empty period"}
		}
	}
	return nil
}

// empty reports whether the statement is missing its mandatory content.
func (s *StructuredStatement) empty() bool {
	return len(s.Periods) == 0 || len(s.Sections) == 0
}
