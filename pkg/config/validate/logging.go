package validate

import (
	"fmt"
)

// LoggingConfig represents the logging configuration for validation purposes.
type LoggingConfig struct {
	Level      string
	Format     string
	OutputFile string
}

// ValidateLogging performs validation of the logging configuration.
func ValidateLogging(log LoggingConfig) []error {
	var errs []error

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[log.Level] {
		errs = append(errs, ValidationError{
			Path:    "logging.level",
			Message: fmt.Sprintf("invalid value %q", log.Level),
			Hint:    "allowed values: debug, info, warn, error",
		})
	}

	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[log.Format] {
		errs = append(errs, ValidationError{
			Path:    "logging.format",
			Message: fmt.Sprintf("invalid value %q", log.Format),
			Hint:    "allowed values: json, console",
		})
	}

	if log.OutputFile != "" {
		if err := ValidateParentWritable(log.OutputFile); err != nil {
			errs = append(errs, ValidationError{
				Path:    "logging.output_file",
				Message: fmt.Sprintf("parent directory not writable: %v", err),
			})
		}
	}

	return errs
}
