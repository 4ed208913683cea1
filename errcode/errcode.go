package errcode

import (
	"watchdogcode-go/drivers/attinywdt"
)

// Code is a stable, bus-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK            Code = "ok"
	Busy          Code = "busy"
	Unsupported   Code = "unsupported"
	InvalidParams Code = "invalid_params"
	InvalidTopic  Code = "invalid_topic"

	// Watchdog control plane.
	Locked             Code = "locked"
	NotArmed           Code = "not_armed"
	UnsupportedTimeout Code = "unsupported_timeout"
	BusFault           Code = "bus_fault"

	Error Code = "error" // generic fallback
)

// Optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	if e.Msg != "" {
		return string(e.C) + ": " + e.Msg
	}
	return string(e.C)
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Error
}

// MapDriverErr maps watchdog driver errors to a Code. Anything that is not a
// recognised driver sentinel is assumed to come from the register channel.
func MapDriverErr(err error) Code {
	switch err {
	case nil:
		return OK
	case attinywdt.ErrLocked:
		return Locked
	case attinywdt.ErrNotArmed:
		return NotArmed
	case attinywdt.ErrUnsupportedTimeout:
		return UnsupportedTimeout
	default:
		return BusFault
	}
}
