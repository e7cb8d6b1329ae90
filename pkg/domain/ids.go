package domain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// idPattern matches record IDs: alphanumeric with hyphens or underscores.
var idPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// NewRecordID returns a fresh identifier for an imported record.
func NewRecordID() string {
	return uuid.New().String()
}

// ValidateID checks that a user supplied identifier is usable as a record key.
func ValidateID(kind, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("%s ID cannot be empty", kind)
	}
	if !idPattern.MatchString(value) {
		return fmt.Errorf("invalid %s ID format: %s", kind, value)
	}
	return nil
}

// EnsureID returns id when set and a new record ID otherwise.
func EnsureID(id string) string {
	if strings.TrimSpace(id) == "" {
		return NewRecordID()
	}
	return id
}
