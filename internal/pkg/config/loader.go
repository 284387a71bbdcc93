package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ConfigLoadResult is the outcome of loading one configuration value.
//
// Loaders in this package never fail. When a value is present but cannot be
// parsed or does not pass validation, the default is returned, FallbackApplied
// is set and a human readable warning is appended to Warnings.
//
// Example:
//
//	result := LoadEnvDuration("CRAWL_INTERVAL", 30*time.Minute, ValidatePositiveDuration)
//	if result.FallbackApplied {
//	    for _, w := range result.Warnings {
//	        slog.Warn("configuration fallback", slog.String("warning", w))
//	    }
//	}
//	interval := result.Value.(time.Duration)
type ConfigLoadResult struct {
	Value           interface{}
	Warnings        []string
	FallbackApplied bool
}

func fallback(envKey, raw string, reason interface{}, defaultValue interface{}) ConfigLoadResult {
	return ConfigLoadResult{
		Value: defaultValue,
		Warnings: []string{fmt.Sprintf(
			"Invalid %s='%s': %v, falling back to default '%v'",
			envKey, raw, reason, defaultValue,
		)},
		FallbackApplied: true,
	}
}

// loadParsed reads envKey, parses it and validates it. An unset or empty
// variable yields the default without a warning.
func loadParsed[T any](envKey string, defaultValue T, parse func(string) (T, error), validator func(T) error) ConfigLoadResult {
	raw := os.Getenv(envKey)
	if raw == "" {
		return ConfigLoadResult{Value: defaultValue}
	}

	parsed, err := parse(raw)
	if err != nil {
		return fallback(envKey, raw, err, defaultValue)
	}

	if validator != nil {
		if err := validator(parsed); err != nil {
			return fallback(envKey, raw, err, defaultValue)
		}
	}

	return ConfigLoadResult{Value: parsed}
}

// LoadEnvString returns the value of envKey, or defaultValue when it is unset
// or empty. No validation is performed.
func LoadEnvString(envKey, defaultValue string) string {
	value := os.Getenv(envKey)
	if value == "" {
		return defaultValue
	}
	return value
}

// LoadEnvWithFallback loads a string and validates it. Invalid values fall
// back to defaultValue with a warning. A nil validator accepts any value.
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) ConfigLoadResult {
	return loadParsed(envKey, defaultValue, func(s string) (string, error) { return s, nil }, validator)
}

// LoadEnvDuration loads a Go duration string such as "30s" or "1h30m".
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) ConfigLoadResult {
	return loadParsed(envKey, defaultValue, time.ParseDuration, validator)
}

// LoadEnvInt loads a base-10 integer. Decimals and surrounding spaces are
// rejected.
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) ConfigLoadResult {
	return loadParsed(envKey, defaultValue, func(s string) (int, error) {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("invalid integer format")
		}
		return v, nil
	}, validator)
}

// LoadEnvBool loads a boolean. Accepted spellings are those of
// strconv.ParseBool ("1", "t", "true", "0", "f", "false" and case variants).
func LoadEnvBool(envKey string, defaultValue bool) ConfigLoadResult {
	return loadParsed(envKey, defaultValue, func(s string) (bool, error) {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return false, fmt.Errorf("invalid boolean format, expected 'true' or 'false'")
		}
		return v, nil
	}, nil)
}

// LoadEnvList loads a comma separated list. Items are trimmed and empty items
// dropped; a list that ends up empty falls back to defaultValue.
func LoadEnvList(envKey string, defaultValue []string, validator func([]string) error) ConfigLoadResult {
	return loadParsed(envKey, defaultValue, func(s string) ([]string, error) {
		var items []string
		for _, part := range strings.Split(s, ",") {
			if p := strings.TrimSpace(part); p != "" {
				items = append(items, p)
			}
		}
		if len(items) == 0 {
			return nil, fmt.Errorf("list is empty")
		}
		return items, nil
	}, validator)
}
