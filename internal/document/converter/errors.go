package converter

import (
	"errors"
	"fmt"
)

// Sentinel errors for conversion failures.
var (
	ErrNoConverterAvailable    = errors.New("no conversion tool available")
	ErrConversionTimeout       = errors.New("conversion timed out")
	ErrConversionOutputMissing = errors.New("conversion produced no output")
)

// ToolError is a conversion tool that exited with a non-zero status.
type ToolError struct {
	Tool     string
	ExitCode int
	Stderr   string
}

func (e *ToolError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s exited with status %d", e.Tool, e.ExitCode)
	}
	return fmt.Sprintf("%s exited with status %d: %s", e.Tool, e.ExitCode, e.Stderr)
}
