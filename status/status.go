// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package status defines the uniform result taxonomy shared by every layer
// of the library: transports, device drivers and parsers all return a
// Status rather than an ad-hoc error type, so a host application can make a
// single switch decide what to do next.
package status

import "fmt"

// Status is a closed sum of outcomes. Zero value is Success.
type Status int

const (
	Success Status = iota
	// Done signals iterator exhaustion; distinct from Success so callers can
	// tell "no more data" apart from "the last item was processed fine".
	Done
	Unsupported
	InvalidArgs
	NoMemory
	NoAccess
	IO
	Timeout
	Protocol
	DataFormat
	Cancelled
)

var names = [...]string{
	Success:     "success",
	Done:        "done",
	Unsupported: "unsupported",
	InvalidArgs: "invalid arguments",
	NoMemory:    "out of memory",
	NoAccess:    "no access",
	IO:          "input/output error",
	Timeout:     "timeout",
	Protocol:    "protocol error",
	DataFormat:  "data format error",
	Cancelled:   "cancelled",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(names) {
		return fmt.Sprintf("status(%d)", int(s))
	}
	return names[s]
}

// Error wraps a Status with a diagnostic message and satisfies the error
// interface, so driver and parser code can return a plain Go error while
// callers that care can still recover the underlying Status via As.
type Error struct {
	Status  Status
	Op      string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Status, e.Message)
}

// New builds an *Error for op with an optional formatted message.
func New(s Status, op, format string, args ...interface{}) *Error {
	return &Error{Status: s, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Of extracts the Status carried by err, or Success if err is nil, or IO if
// err is a foreign error that carries no Status.
func Of(err error) Status {
	if err == nil {
		return Success
	}
	if se, ok := err.(*Error); ok {
		return se.Status
	}
	return IO
}

// Is reports whether err was produced with the given Status.
func Is(err error, s Status) bool {
	return Of(err) == s
}
