package blocks

import (
	"errors"
	"fmt"
)

var (
	// ErrParameterOutOfRange is returned when a numeric parameter is outside
	// of its valid range.
	ErrParameterOutOfRange = errors.New("parameter out of range")

	// ErrFormatStringTooLong is returned when an event format string exceeds
	// its length limit.
	ErrFormatStringTooLong = errors.New("format string too long")
)

// A ConfigError reports which block and which field failed configuration or
// start.
type ConfigError struct {
	Block string
	Kind  Kind
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("block %s (%s): %s: %v", e.Block, e.Kind, e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// CheckRange fails with ErrParameterOutOfRange if v is not in [lo, hi].
func CheckRange(v, lo, hi int64) error {
	if v < lo || v > hi {
		return fmt.Errorf("%w: %d is not in [%d, %d]",
			ErrParameterOutOfRange, v, lo, hi)
	}

	return nil
}
