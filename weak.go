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

// Weak observes a value owned by Strong handles without keeping it alive.
// The zero value is an empty handle.
//
// A Weak handle never exposes the value directly. Use Lock or FromWeak to
// obtain a Strong handle first.
type Weak[T any] struct {
	noCopy noCopy
	ctrl   *control[T]
}

// NewWeak creates a weak handle observing the value owned by s. The weak
// handle is empty if s is empty.
func NewWeak[T any](s *Strong[T]) *Weak[T] {
	w := &Weak[T]{}
	if s.Valid() {
		s.ctrl.retainWeak()
		w.ctrl = s.ctrl
	}
	return w
}

// Downgrade converts s into a weak handle. s is empty afterwards and its
// strong share is released, which destroys the value if s was the last
// strong handle.
func Downgrade[T any](s *Strong[T]) *Weak[T] {
	w := NewWeak(s)
	s.Release()
	return w
}

// Clone returns a new weak handle observing the same value as w.
func (w *Weak[T]) Clone() *Weak[T] {
	if w == nil || w.ctrl == nil {
		return &Weak[T]{}
	}
	w.ctrl.retainWeak()
	return &Weak[T]{ctrl: w.ctrl}
}

// Move transfers the observation to a new handle. w will be empty afterwards.
func (w *Weak[T]) Move() *Weak[T] {
	to := &Weak[T]{}
	if w != nil {
		to.ctrl, w.ctrl = w.ctrl, nil
	}
	return to
}

// Assign makes w observe the same value as other.
func (w *Weak[T]) Assign(other *Weak[T]) {
	if w == other {
		return
	}
	tmp := other.Clone()
	w.Swap(tmp)
	tmp.Release()
}

// MoveFrom releases w and takes over the observation of other. other will be
// empty afterwards.
func (w *Weak[T]) MoveFrom(other *Weak[T]) {
	if w == other {
		return
	}
	tmp := other.Move()
	w.Swap(tmp)
	tmp.Release()
}

// Swap exchanges the observed values of w and other.
func (w *Weak[T]) Swap(other *Weak[T]) {
	w.ctrl, other.ctrl = other.ctrl, w.ctrl
}

// Reset releases w, leaving it empty.
func (w *Weak[T]) Reset() {
	w.Release()
}

// UseCount returns the number of strong handles keeping the observed value
// alive.
func (w *Weak[T]) UseCount() int {
	if w == nil || w.ctrl == nil {
		return 0
	}
	return w.ctrl.useCount()
}

// Expired reports whether the observed value has been destroyed, or w never
// observed a value.
func (w *Weak[T]) Expired() bool {
	return w.UseCount() == 0
}

// Lock returns a strong handle to the observed value. The returned handle is
// empty if w has expired.
func (w *Weak[T]) Lock() *Strong[T] {
	if w == nil || w.ctrl == nil || !w.ctrl.tryRetainStrong() {
		return &Strong[T]{}
	}
	return &Strong[T]{ctrl: w.ctrl}
}

// Release stops observing the value. Releasing an empty handle is a no-op.
func (w *Weak[T]) Release() {
	if w == nil || w.ctrl == nil {
		return
	}
	ctrl := w.ctrl
	w.ctrl = nil
	ctrl.releaseWeak()
}

// Trace returns the recorded event history of the observed control record.
func (w *Weak[T]) Trace() string {
	if w == nil || w.ctrl == nil {
		return ""
	}
	return w.ctrl.trace.String()
}
