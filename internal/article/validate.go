package article

import (
	"fmt"
	"strings"
)

// ValidationError reports a required field that was left empty. It is
// raised before any request is sent.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// ValidateFields checks the fields every create or update needs.
func ValidateFields(title, content string) error {
	if strings.TrimSpace(title) == "" {
		return &ValidationError{Field: "title"}
	}
	if strings.TrimSpace(content) == "" {
		return &ValidationError{Field: "content"}
	}
	return nil
}

// ValidateID checks a lookup id before it is sent.
func ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return &ValidationError{Field: "article id"}
	}
	return nil
}
