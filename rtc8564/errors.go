package rtc8564

import (
	"errors"
	"fmt"
)

var (
	// ErrVoltageLow is returned when the VL bit is set: the oscillator stopped and the time registers are undefined
	// until the clock is set again.
	ErrVoltageLow = errors.New("rtc8564: voltage low, time is invalid")

	// ErrBusTimeout matches any *BusTimeoutError.
	ErrBusTimeout = errors.New("rtc8564: bus timeout")
)

// BusTimeoutError reports a register transfer that still failed after all retries.
type BusTimeoutError struct {
	Op       string // "read" or "write"
	Register uint8
	Attempts int
	Err      error // last error from the bus
}

func (e *BusTimeoutError) Error() string {
	return fmt.Sprintf("rtc8564: %s register 0x%02X failed after %d attempts: %v", e.Op, e.Register, e.Attempts, e.Err)
}

func (e *BusTimeoutError) Unwrap() error { return e.Err }

func (e *BusTimeoutError) Is(target error) bool { return target == ErrBusTimeout }

func (e *BusTimeoutError) Timeout() bool { return true }
