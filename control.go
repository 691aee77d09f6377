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
	"fmt"
	"io"

	"github.com/urso/sderr"
	"go.uber.org/zap"
)

// control is the record shared by all handles referencing one owned value.
// Counters are only modified through the methods below, which are used by
// Strong and Weak exclusively.
type control[T any] struct {
	value  *T
	strong refCount
	weak   refCount

	destroyed bool
	freed     bool

	trace *tracer
}

// noCopy may be embedded into structs which must not be copied after first
// use. See go vet -copylocks.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

func newControl[T any](value *T) *control[T] {
	c := &control[T]{value: value, trace: newTracer()}
	c.strong.Action = c.destroy
	c.strong.count = 1
	c.trace.record(newEvent, 1, 0)
	return c
}

func (c *control[T]) useCount() int {
	return int(c.strong.Count())
}

// retainStrong adds a strong reference. The value must still be alive.
func (c *control[T]) retainStrong() {
	if c.strong.Count() == 0 {
		panicTrace(c.trace, errResurrect)
		return
	}
	if err := c.strong.Retain(); err != nil {
		panicTrace(c.trace, err)
		return
	}
	c.trace.record(retainStrongEvent, c.strong.Count(), c.weak.Count())
}

// tryRetainStrong adds a strong reference if the value is still alive.
// No counter is modified if the value has been destroyed.
func (c *control[T]) tryRetainStrong() bool {
	if c.strong.Count() == 0 {
		return false
	}
	c.retainStrong()
	return true
}

func (c *control[T]) retainWeak() {
	if err := c.weak.Retain(); err != nil {
		panicTrace(c.trace, err)
		return
	}
	c.trace.record(retainWeakEvent, c.strong.Count(), c.weak.Count())
}

// releaseStrong drops a strong reference. The value is destroyed by the
// counters Action once the last strong reference is gone. The record is
// freed after the value if no weak references remain.
func (c *control[T]) releaseStrong() {
	if _, err := c.strong.Release(); err != nil {
		panicTrace(c.trace, err)
		return
	}
	c.trace.record(releaseStrongEvent, c.strong.Count(), c.weak.Count())
	c.maybeFree()
}

func (c *control[T]) releaseWeak() {
	if _, err := c.weak.Release(); err != nil {
		panicTrace(c.trace, err)
		return
	}
	c.trace.record(releaseWeakEvent, c.strong.Count(), c.weak.Count())
	c.maybeFree()
}

func (c *control[T]) destroy() {
	if c.destroyed {
		return
	}
	c.destroyed = true

	value := c.value
	c.value = nil
	c.trace.record(destroyEvent, c.strong.Count(), c.weak.Count())

	if closer, ok := interface{}(value).(io.Closer); ok {
		if err := closer.Close(); err != nil {
			logger.Error("failed to close shared value",
				zap.Error(sderr.Wrap(err, "closing value of type {type}", typeName(value))))
		}
	}
}

func (c *control[T]) maybeFree() {
	if c.freed || c.strong.Count()+c.weak.Count() != 0 {
		return
	}
	c.freed = true
	c.trace.record(freeEvent, 0, 0)

	if c.trace != nil {
		logger.Debug("shared control record freed", zap.String("traceback", c.trace.String()))
	}
}

func typeName[T any](v *T) string {
	return fmt.Sprintf("%T", v)
}
