package configloader

import (
	"slices"

	"github.com/dersebi/GoSublime/pkg/config"
)

// merge combines two configurations, with override taking precedence over base.
// The merge follows these rules:
//   - Scalar values: override overwrites base if override is non-zero
//   - LintCmd: a non-nil pointer overrides, so "" can disable linting
//   - Slices: override replaces base entirely if override is non-nil
func merge(base, override *config.Config) *config.Config {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	result := base.Clone()

	if override.LintCmd != nil {
		cmd := *override.LintCmd
		result.LintCmd = &cmd
	}
	if override.LintTimeout != 0 {
		result.LintTimeout = override.LintTimeout
	}
	if override.LintProcessTimeout != 0 {
		result.LintProcessTimeout = override.LintProcessTimeout
	}
	if override.Format != "" {
		result.Format = override.Format
	}
	if override.Jobs != 0 {
		result.Jobs = override.Jobs
	}

	if override.LintArgs != nil {
		result.LintArgs = slices.Clone(override.LintArgs)
	}
	if override.Extensions != nil {
		result.Extensions = slices.Clone(override.Extensions)
	}
	if override.Ignore != nil {
		result.Ignore = slices.Clone(override.Ignore)
	}

	return result
}

// MergeAll merges multiple configurations in order, with later configs taking precedence.
func MergeAll(configs ...*config.Config) *config.Config {
	if len(configs) == 0 {
		return nil
	}

	result := configs[0]
	for i := 1; i < len(configs); i++ {
		result = merge(result, configs[i])
	}
	return result
}
