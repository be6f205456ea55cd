package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "resource.poll_interval")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateResource()...)
	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validateWatch()...)

	return errors
}

// validateResource validates the ResourceConfig
func (c *Config) validateResource() []ValidationError {
	var errors []ValidationError

	if c.Resource.PollInterval <= 0 {
		errors = append(errors, ValidationError{
			Field:   "resource.poll_interval",
			Value:   c.Resource.PollInterval,
			Message: "must be positive",
		})
	}

	if c.Resource.ReadyPollInterval <= 0 {
		errors = append(errors, ValidationError{
			Field:   "resource.ready_poll_interval",
			Value:   c.Resource.ReadyPollInterval,
			Message: "must be positive",
		})
	}

	// The directory is never created by the coordinator, so it has to exist.
	if c.Resource.Dir != "" {
		dir := c.Resource.ResolveDir()
		info, err := os.Stat(dir)
		if err != nil {
			errors = append(errors, ValidationError{
				Field:   "resource.dir",
				Value:   c.Resource.Dir,
				Message: "directory does not exist",
			})
		} else if !info.IsDir() {
			errors = append(errors, ValidationError{
				Field:   "resource.dir",
				Value:   c.Resource.Dir,
				Message: "is not a directory",
			})
		}
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if c.Logging.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	}

	const maxLogSizeMB = 1000 // 1GB
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateWatch validates the WatchConfig
func (c *Config) validateWatch() []ValidationError {
	var errors []ValidationError

	const minRefresh = 50 * time.Millisecond
	if c.Watch.RefreshInterval < minRefresh {
		errors = append(errors, ValidationError{
			Field:   "watch.refresh_interval",
			Value:   c.Watch.RefreshInterval,
			Message: fmt.Sprintf("must be at least %s", minRefresh),
		})
	}

	return errors
}
