// Package metric extracts the elapsed-time value a simulation prints on stdout.
//
// The simulator reports its timing as a line such as
//
//	Simulation Time = 3.1415 seconds for 1000 particles.
//
// Only the first whitespace-separated token after the first '=' is read.
// This is the single place that knows the output format.
package metric

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrNoDelimiter indicates the text has no '=' to read a value from.
	ErrNoDelimiter = errors.New("metric: no '=' in output")

	// ErrNoValue indicates nothing follows the '='.
	ErrNoValue = errors.New("metric: no value after '='")

	// ErrInvalidValue indicates the token after '=' is not a usable time.
	ErrInvalidValue = errors.New("metric: value is not a nonnegative number")
)

// ParseError wraps an extraction failure with the offending input.
type ParseError struct {
	Input   string
	Wrapped error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v: %q", e.Wrapped, truncate(e.Input, 120))
}

func (e *ParseError) Unwrap() error {
	return e.Wrapped
}

// Parse returns the time in seconds reported on a single line.
func Parse(line string) (float64, error) {
	_, rest, ok := strings.Cut(line, "=")
	if !ok {
		return 0, &ParseError{Input: line, Wrapped: ErrNoDelimiter}
	}
	rest, _, _ = strings.Cut(rest, "=")

	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return 0, &ParseError{Input: line, Wrapped: ErrNoValue}
	}

	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, &ParseError{Input: line, Wrapped: fmt.Errorf("%w: %v", ErrInvalidValue, err)}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, &ParseError{Input: line, Wrapped: ErrInvalidValue}
	}

	return v, nil
}

// FromOutput parses the first line of captured output that contains '='.
func FromOutput(output string) (float64, error) {
	for _, line := range strings.Split(output, "\n") {
		if strings.Contains(line, "=") {
			return Parse(line)
		}
	}
	return 0, &ParseError{Input: output, Wrapped: ErrNoDelimiter}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
