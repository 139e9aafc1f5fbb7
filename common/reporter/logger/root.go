// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

// Package logger handles logging for netflowd.
//
// This is a thin wrapper around zerolog. Each event gets a "caller"
// field and a "module" field (the netflowd package emitting the
// event) to be able to filter logs more easily.
package logger

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"netflowd/common/reporter/stack"
)

// Logger is a logger instance. It is compatible with the interface
// from zerolog.
type Logger struct {
	zerolog.Logger
}

// New creates a new logger from the global zerolog logger.
func New(Configuration) (Logger, error) {
	return Logger{log.Logger.Hook(contextHook{})}, nil
}

type contextHook struct{}

// Run adds "caller" and "module" to an event.
func (contextHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	callStack := stack.Callers()
	callStack = callStack[3:] // hook, event.msg and event.Msg
	e.Str("caller", callStack[0].SourceFile(true))
	for _, call := range callStack {
		module := call.FunctionName()
		if !strings.HasPrefix(module, stack.ModuleName) {
			continue
		}
		module, _, _ = strings.Cut(module, ".")
		e.Str("module", module)
		break
	}
}
