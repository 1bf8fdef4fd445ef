// Package logging provides logging utilities including sensitive data filtering.
// This package contains hooks and utilities for zerolog that help ensure board
// API credentials, completion API keys, and GitHub tokens are never written to
// log output.
package logging

import (
	"io"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// RedactedValue is the replacement string for sensitive data.
const RedactedValue = "[REDACTED]"

// sensitivePatterns contains compiled regular expressions for detecting sensitive values.
// These patterns match the credential formats of the external services drover talks to.
var sensitivePatterns = []*regexp.Regexp{ //nolint:gochecknoglobals // Package-level patterns for reuse
	// Anthropic API keys (sk-ant-api...)
	regexp.MustCompile(`sk-ant-api[a-zA-Z0-9_-]+`),

	// Generic sk- API keys
	regexp.MustCompile(`sk-[a-zA-Z0-9]{20,}`),

	// GitHub tokens (ghp_, gho_, ghu_, ghs_, ghr_)
	regexp.MustCompile(`gh[pousr]_[a-zA-Z0-9]{20,}`),

	// Board auth query parameters (key=..., token=...) as they appear in URLs
	regexp.MustCompile(`(?i)\b(key|token|api_key|apikey|secret|password|auth)=[^&\s"']+`),

	// Bearer tokens
	regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9._-]{20,}`),

	// Generic secret assignments (secret, password, credential with values)
	regexp.MustCompile(`(?i)(secret|password|credential|passwd|pwd)\s*[:=]\s*["']?[^\s"']{8,}["']?`),
}

// sensitiveFieldNames contains field names that should always have their values redacted.
// Case-insensitive matching is performed.
var sensitiveFieldNames = []string{ //nolint:gochecknoglobals // Package-level patterns for reuse
	"api_key",
	"apikey",
	"api-key",
	"token",
	"password",
	"passwd",
	"secret",
	"credential",
	"credentials",
	"bearer",
	"authorization",
	"anthropic_api_key",
	"github_token",
	"board_token",
}

// SensitiveDataHook is a zerolog hook that flags log entries containing
// sensitive data. Zerolog hooks cannot rewrite the message itself, so the
// primary defense is FilterSensitiveValue at call sites and FilteringWriter
// around file outputs; the hook marks anything that slips through.
type SensitiveDataHook struct{}

// NewSensitiveDataHook creates a new SensitiveDataHook for filtering sensitive data.
func NewSensitiveDataHook() *SensitiveDataHook {
	return &SensitiveDataHook{}
}

// Run implements the zerolog.Hook interface.
func (h *SensitiveDataHook) Run(e *zerolog.Event, _ zerolog.Level, msg string) {
	if ContainsSensitiveData(msg) {
		e.Bool("contains_filtered_data", true)
	}
}

// ContainsSensitiveData checks if a string contains any sensitive data patterns.
func ContainsSensitiveData(s string) bool {
	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(s) {
			return true
		}
	}
	return false
}

// FilterSensitiveValue replaces any matches of sensitive patterns with [REDACTED].
// Use this when logging potentially sensitive values, notably upstream error
// messages that may embed request URLs.
func FilterSensitiveValue(value string) string {
	result := value
	for _, pattern := range sensitivePatterns {
		result = pattern.ReplaceAllString(result, RedactedValue)
	}
	return result
}

// IsSensitiveFieldName checks if a field name indicates sensitive data.
func IsSensitiveFieldName(fieldName string) bool {
	lowerName := strings.ToLower(fieldName)
	for _, sensitive := range sensitiveFieldNames {
		if lowerName == sensitive || strings.Contains(lowerName, sensitive) {
			return true
		}
	}
	return false
}

// RedactIfSensitive returns [REDACTED] if the field name indicates sensitive data,
// otherwise returns the pattern-filtered value.
func RedactIfSensitive(fieldName, value string) string {
	if IsSensitiveFieldName(fieldName) {
		return RedactedValue
	}
	return FilterSensitiveValue(value)
}

// FilteringWriter wraps an io.Writer and filters sensitive data from output.
// This is used to wrap log file writers so credentials never reach disk even
// if they appear inside formatted messages.
type FilteringWriter struct {
	w io.Writer
}

// NewFilteringWriter creates a new FilteringWriter that wraps the given writer.
func NewFilteringWriter(w io.Writer) *FilteringWriter {
	return &FilteringWriter{w: w}
}

// Write implements io.Writer, filtering sensitive data before writing.
func (fw *FilteringWriter) Write(p []byte) (n int, err error) {
	filtered := FilterSensitiveValue(string(p))
	_, err = fw.w.Write([]byte(filtered))
	if err != nil {
		return 0, err
	}
	// Return original length so callers don't see a short write.
	return len(p), nil
}
