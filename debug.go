// Licensed to Elasticsearch B.V. under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. Elasticsearch B.V. licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package shared

import (
	"bytes"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/urso/sderr"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

const (
	defaultTracebackMaxDepth  = 32
	defaultTracebackMaxEvents = 64
)

var (
	traceback          = atomic.NewBool(false)
	tracebackMaxDepth  = atomic.NewInt64(defaultTracebackMaxDepth)
	tracebackMaxEvents = atomic.NewInt64(defaultTracebackMaxEvents)
	tracebackPCPool    = sync.Pool{New: func() interface{} {
		return make([]uintptr, defaultTracebackMaxDepth)
	}}

	panicFn = defaultPanic
	logger  = zap.NewNop()
)

// PanicFn is called whenever a handle or control record detects a contract
// violation.
type PanicFn func(err error)

// SetPanicFn replaces the function used to report contract violations.
// The default panics with the error.
func SetPanicFn(fn PanicFn) {
	panicFn = fn
}

// ResetPanicFn restores the default runtime panic.
func ResetPanicFn() {
	panicFn = defaultPanic
}

// Panic reports err via the current panic function.
func Panic(err error) {
	logger.Error("shared handle contract violation", zap.Error(err))
	panicFn(err)
}

func defaultPanic(err error) {
	panic(err)
}

// SetLogger sets the logger used to report close failures and violations.
// A nil logger disables logging.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}

// ResetLogger restores the default no-op logger.
func ResetLogger() {
	logger = zap.NewNop()
}

// SetTraceback enables or disables event recording for control records
// created after the call.
func SetTraceback(enabled bool) {
	traceback.Store(enabled)
}

// SetTracebackMaxDepth sets the number of stack frames captured per event.
func SetTracebackMaxDepth(frames int) {
	if frames <= 0 {
		frames = defaultTracebackMaxDepth
	}
	tracebackMaxDepth.Store(int64(frames))
}

// SetTracebackMaxEvents sets the number of events kept per control record.
// Older events are dropped first.
func SetTracebackMaxEvents(events int) {
	if events <= 0 {
		events = defaultTracebackMaxEvents
	}
	tracebackMaxEvents.Store(int64(events))
}

type traceEvent int

const (
	newEvent traceEvent = iota
	retainStrongEvent
	releaseStrongEvent
	retainWeakEvent
	releaseWeakEvent
	destroyEvent
	freeEvent
)

func (e traceEvent) String() string {
	switch e {
	case newEvent:
		return "New"
	case retainStrongEvent:
		return "RetainStrong"
	case releaseStrongEvent:
		return "ReleaseStrong"
	case retainWeakEvent:
		return "RetainWeak"
	case releaseWeakEvent:
		return "ReleaseWeak"
	case destroyEvent:
		return "Destroy"
	case freeEvent:
		return "Free"
	}
	return "Unknown"
}

// tracer keeps the most recent events of a single control record.
type tracer struct {
	maxEvents int
	entries   []traceEntry
}

type traceEntry struct {
	event  traceEvent
	strong uint
	weak   uint
	pc     []uintptr
	t      time.Time
}

func newTracer() *tracer {
	if !traceback.Load() {
		return nil
	}
	return &tracer{maxEvents: int(tracebackMaxEvents.Load())}
}

func (t *tracer) record(event traceEvent, strong, weak uint) {
	if t == nil {
		return
	}

	depth := int(tracebackMaxDepth.Load())
	pc := tracebackPCPool.Get().([]uintptr)
	if cap(pc) < depth {
		pc = make([]uintptr, depth)
	}
	pc = pc[:depth]

	// skip runtime.Callers, record and the control record method.
	n := runtime.Callers(3, pc)

	if len(t.entries) == t.maxEvents {
		tracebackPCPool.Put(t.entries[0].pc[:cap(t.entries[0].pc)])
		copy(t.entries, t.entries[1:])
		t.entries = t.entries[:len(t.entries)-1]
	}
	t.entries = append(t.entries, traceEntry{
		event:  event,
		strong: strong,
		weak:   weak,
		pc:     pc[:n],
		t:      time.Now(),
	})
}

// String renders the recorded events, newest first.
func (t *tracer) String() string {
	if t == nil {
		return ""
	}

	buf := bytes.NewBuffer(nil)
	for i := len(t.entries) - 1; i >= 0; i-- {
		buf.WriteString(t.entries[i].String())
	}
	return buf.String()
}

func (e *traceEntry) String() string {
	buf := bytes.NewBuffer(nil)
	frames := runtime.CallersFrames(e.pc)
	for {
		frame, more := frames.Next()
		if frame.Function != "" {
			fmt.Fprintf(buf, "%s(...)\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		}
		if !more {
			break
		}
	}
	return fmt.Sprintf("%s, strong=%d, weak=%d, unixnanos=%d:\n%s\n",
		e.event, e.strong, e.weak, e.t.UnixNano(), buf.String())
}

// panicTrace reports err, attaching the event history if available.
func panicTrace(t *tracer, err error) {
	if trace := t.String(); trace != "" {
		err = sderr.Wrap(err, "traceback:\n\n{traceback}", trace)
	}
	Panic(err)
}
