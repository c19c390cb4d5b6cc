package config

import (
	"fmt"
	"strings"
)

// ValidationError reports an invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

const maxPort = 65535

// ValidateRequired checks that value is not blank.
func ValidateRequired(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Message: "is required"}
	}
	return nil
}

// ValidatePort checks that port is in 1-65535.
func ValidatePort(field string, port int) error {
	if port < 1 || port > maxPort {
		return &ValidationError{Field: field, Message: "must be between 1 and 65535"}
	}
	return nil
}

// ValidatePositive checks that n is at least one.
func ValidatePositive(field string, n int) error {
	if n < 1 {
		return &ValidationError{Field: field, Message: "must be at least 1"}
	}
	return nil
}

// ValidateLogLevel checks a zap level name.
func ValidateLogLevel(field, level string) error {
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "warning", "error", "fatal":
		return nil
	default:
		return &ValidationError{Field: field, Message: "must be one of: debug, info, warn, error, fatal"}
	}
}

// ValidateLogFormat checks a logger output format.
func ValidateLogFormat(field, format string) error {
	switch format {
	case "json", "console":
		return nil
	default:
		return &ValidationError{Field: field, Message: "must be one of: json, console"}
	}
}
