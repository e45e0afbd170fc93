package configloader

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dersebi/GoSublime/pkg/config"
)

// envVarPrefix is the prefix for all gslint environment variables.
const envVarPrefix = "GSLINT_"

// envFieldType represents the type of a configuration field.
type envFieldType int

const (
	envTypeString envFieldType = iota
	envTypeInt
	envTypeSlice
)

// envMapping defines environment variable to config field mappings.
type envMapping struct {
	field string
	typ   envFieldType

	// allowEmpty applies the variable even when it is set to "".
	allowEmpty bool
}

// envMappings maps environment variable names (without prefix) to config fields.
//
//nolint:gochecknoglobals // Read-only lookup table.
var envMappings = map[string]envMapping{
	"LINT_CMD":             {field: "lint_cmd", typ: envTypeString, allowEmpty: true},
	"LINT_ARGS":            {field: "lint_args", typ: envTypeSlice},
	"LINT_TIMEOUT":         {field: "lint_timeout", typ: envTypeInt},
	"LINT_PROCESS_TIMEOUT": {field: "lint_process_timeout", typ: envTypeInt},
	"EXTENSIONS":           {field: "extensions", typ: envTypeSlice},
	"IGNORE":               {field: "ignore", typ: envTypeSlice},
	"JOBS":                 {field: "jobs", typ: envTypeInt},
	"FORMAT":               {field: "format", typ: envTypeString},
}

// LoadFromEnv applies environment variable overrides to the configuration.
// Environment variables are prefixed with GSLINT_ (e.g., GSLINT_LINT_CMD).
// GSLINT_LINT_CMD set to the empty string disables linting.
func LoadFromEnv(cfg *config.Config) error {
	if cfg == nil {
		return nil
	}

	for envSuffix, mapping := range envMappings {
		envVar := envVarPrefix + envSuffix
		value, ok := os.LookupEnv(envVar)
		if !ok || (value == "" && !mapping.allowEmpty) {
			continue
		}

		if err := applyEnvValue(cfg, mapping, value, envVar); err != nil {
			return err
		}
	}

	return nil
}

// applyEnvValue applies a single environment variable value to the config.
func applyEnvValue(cfg *config.Config, mapping envMapping, value, envVar string) error {
	switch mapping.typ {
	case envTypeString:
		return setStringField(cfg, mapping.field, value)
	case envTypeInt:
		i, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer for %s: %q", envVar, value)
		}
		return setIntField(cfg, mapping.field, i)
	case envTypeSlice:
		return setSliceField(cfg, mapping.field, parseSliceValue(value))
	default:
		return fmt.Errorf("unknown field type for %s", envVar)
	}
}

// parseSliceValue parses a comma-separated string into a slice.
// Each element is trimmed of whitespace.
func parseSliceValue(value string) []string {
	if value == "" {
		return nil
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// setStringField sets a string field on the config by field path.
func setStringField(cfg *config.Config, field, value string) error {
	switch field {
	case "lint_cmd":
		cfg.LintCmd = &value
	case "format":
		cfg.Format = config.OutputFormat(value)
	default:
		return fmt.Errorf("unknown string field: %s", field)
	}
	return nil
}

// setIntField sets an integer field on the config by field path.
func setIntField(cfg *config.Config, field string, value int) error {
	switch field {
	case "lint_timeout":
		cfg.LintTimeout = value
	case "lint_process_timeout":
		cfg.LintProcessTimeout = value
	case "jobs":
		cfg.Jobs = value
	default:
		return fmt.Errorf("unknown integer field: %s", field)
	}
	return nil
}

// setSliceField sets a slice field on the config by field path.
func setSliceField(cfg *config.Config, field string, value []string) error {
	switch field {
	case "lint_args":
		cfg.LintArgs = value
	case "extensions":
		cfg.Extensions = value
	case "ignore":
		cfg.Ignore = value
	default:
		return fmt.Errorf("unknown slice field: %s", field)
	}
	return nil
}

// GetEnvVarName returns the full environment variable name for a config field.
func GetEnvVarName(field string) string {
	for suffix, mapping := range envMappings {
		if mapping.field == field {
			return envVarPrefix + suffix
		}
	}
	return ""
}

// ListEnvVars returns a list of all supported environment variables with their descriptions.
func ListEnvVars() map[string]string {
	return map[string]string{
		"GSLINT_LINT_CMD":             "Linter executable; empty disables linting",
		"GSLINT_LINT_ARGS":            "Comma-separated arguments passed before the file names",
		"GSLINT_LINT_TIMEOUT":         "Quiet period in milliseconds before linting an edit",
		"GSLINT_LINT_PROCESS_TIMEOUT": "Maximum linter run time in milliseconds",
		"GSLINT_EXTENSIONS":           "Comma-separated file extensions linted together",
		"GSLINT_IGNORE":               "Comma-separated list of ignore patterns",
		"GSLINT_JOBS":                 "Number of parallel workers (0 = auto)",
		"GSLINT_FORMAT":               "Output format: text or json",
	}
}
