package models

import "errors"

// ConfigError rejects a whole request before any provider call is made:
// malformed templates, empty or oversized recipient lists, an unmapped
// email column. It is never used for per-recipient failures.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return e.Reason
}

// NewConfigError builds a ConfigError with the given reason.
func NewConfigError(reason string) *ConfigError {
	return &ConfigError{Reason: reason}
}

// IsConfigError reports whether err is a request-level rejection.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
