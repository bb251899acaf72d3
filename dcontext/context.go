// Copyright 2024 The libdc Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package dcontext implements the library's top-level Context: a
// diagnostic log level plus a caller-installed log function. Like the
// teacher's periph.Driver registry, there is no logging framework
// dependency here — the host application supplies the sink, matching
// jduranf-device-sdk-go's convention of threading a logging client
// through driver construction rather than importing one.
package dcontext

import "fmt"

// Level is the diagnostic log level, ordered from least to most verbose.
type Level int

const (
	LevelNone Level = iota
	LevelError
	LevelWarning
	LevelInfo
	LevelDebug
	LevelAll
)

// LogFunc receives one diagnostic line at the given level, from the named
// source location (typically "package.Func").
type LogFunc func(level Level, source, format string, args ...interface{})

// Context carries cross-cutting configuration — today, just logging — to
// every device and parser constructed from it. It has no other state and
// is safe to share across goroutines as long as the installed LogFunc is.
type Context struct {
	level Level
	log   LogFunc
}

// New returns a Context with logging disabled.
func New() *Context {
	return &Context{level: LevelNone}
}

// SetLogLevel changes which severities reach the installed LogFunc.
func (c *Context) SetLogLevel(l Level) {
	c.level = l
}

// SetLogFunc installs fn as the diagnostic sink. A nil fn disables
// logging regardless of level.
func (c *Context) SetLogFunc(fn LogFunc) {
	c.log = fn
}

// Logf emits one diagnostic line if level passes the installed threshold.
func (c *Context) Logf(level Level, source, format string, args ...interface{}) {
	if c == nil || c.log == nil || level > c.level {
		return
	}
	c.log(level, source, format, args...)
}

func (c *Context) Errorf(source, format string, args ...interface{}) {
	c.Logf(LevelError, source, format, args...)
}

func (c *Context) Warnf(source, format string, args ...interface{}) {
	c.Logf(LevelWarning, source, format, args...)
}

func (c *Context) Infof(source, format string, args ...interface{}) {
	c.Logf(LevelInfo, source, format, args...)
}

func (c *Context) Debugf(source, format string, args ...interface{}) {
	c.Logf(LevelDebug, source, format, args...)
}

// String implements fmt.Stringer for Level so log callbacks can print it
// directly.
func (l Level) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	case LevelInfo:
		return "info"
	case LevelDebug:
		return "debug"
	case LevelAll:
		return "all"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}
