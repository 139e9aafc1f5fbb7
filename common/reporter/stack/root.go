// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

// Package stack walks the current goroutine stack to find out which
// netflowd package is emitting a log line or registering a metric.
package stack

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
)

// Call is a single program counter from a goroutine stack.
type Call uintptr

// Trace is a sequence of calls, innermost first.
type Trace []Call

var pcPool = sync.Pool{
	New: func() any {
		pcs := make([]uintptr, 512)
		return &pcs
	},
}

// Callers returns the stack of the caller. The first element is the
// function calling Callers.
func Callers() Trace {
	ptr := pcPool.Get().(*[]uintptr)
	defer pcPool.Put(ptr)
	pcs := *ptr
	n := runtime.Callers(2, pcs)
	trace := make(Trace, n)
	for i, pc := range pcs[:n] {
		trace[i] = Call(pc)
	}
	return trace
}

func (pc Call) fn() *runtime.Func {
	return runtime.FuncForPC(uintptr(pc) - 1)
}

// FunctionName returns the fully qualified function name of the call,
// including the import path.
func (pc Call) FunctionName() string {
	fn := pc.fn()
	if fn == nil {
		return "(nofunc)"
	}
	return fn.Name()
}

// SourceFile returns the source file of the call, relative to the
// module it belongs to (and prefixed by the module name). When
// withLine is true, the line number is appended.
func (pc Call) SourceFile(withLine bool) string {
	fn := pc.fn()
	if fn == nil {
		return "(nosource)"
	}
	file, line := fn.FileLine(uintptr(pc) - 1)
	name := fn.Name()

	// Keep as many path components as the import path has.
	depth := strings.Count(name, "/")
	for strings.Count(file, "/") > depth {
		_, file, _ = strings.Cut(file, "/")
	}
	module, _, found := strings.Cut(name, ".")
	if !found {
		return "(nosource)"
	}
	module, _, _ = strings.Cut(module, "/")
	if withLine {
		return fmt.Sprintf("%s/%s:%d", module, file, line)
	}
	return fmt.Sprintf("%s/%s", module, file)
}

// ModuleName is the name of the current Go module (netflowd). It is
// derived from the import path of this package.
var ModuleName = func() string {
	pkg, _, _ := strings.Cut(Callers()[0].FunctionName(), ".") // netflowd/common/reporter/stack
	return strings.TrimSuffix(pkg, "/common/reporter/stack")
}()
