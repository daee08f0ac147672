package effect

import (
	"fmt"
	"strings"
)

// ConfigError indicates invalid effect parameters. It is raised before any
// encode work begins and aborts the whole pipeline call.
type ConfigError struct {
	msg string
}

func (e *ConfigError) Error() string { return e.msg }

func configErrorf(format string, args ...interface{}) *ConfigError {
	return &ConfigError{msg: fmt.Sprintf(format, args...)}
}

// NewConfigError builds a ConfigError for scheduling violations detected
// outside this package, such as multiple trims in one pipeline call.
func NewConfigError(format string, args ...interface{}) *ConfigError {
	return configErrorf(format, args...)
}

// InvalidRangeError indicates a trim whose end does not come after its start.
type InvalidRangeError struct {
	Start float64
	End   float64
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid trim range: end %.3f must be greater than start %.3f", e.End, e.Start)
}

// EncodeError wraps a failed encoder invocation together with the tool's
// diagnostic output so the caller sees which effect failed and why.
type EncodeError struct {
	Effect     string
	Diagnostic string
	Err        error
}

func (e *EncodeError) Error() string {
	diag := strings.TrimSpace(e.Diagnostic)
	if diag == "" {
		return fmt.Sprintf("encode failed for effect %s: %v", e.Effect, e.Err)
	}
	return fmt.Sprintf("encode failed for effect %s: %v\n%s", e.Effect, e.Err, diag)
}

func (e *EncodeError) Unwrap() error { return e.Err }
