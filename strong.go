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

// Package shared provides reference counted handles for shared ownership of
// a value.
//
// A Strong handle keeps the value alive. Once the last Strong handle sharing a
// value is released, the value is destroyed: if it implements io.Closer, Close
// is called exactly once. A Weak handle observes the value without keeping it
// alive and can be upgraded to a Strong handle using Lock or FromWeak for as
// long as the value has not been destroyed.
//
// Handles must not be copied by value. Use Clone to share ownership and Move
// to transfer it. Counters are not atomic. All handles sharing a value must be
// used from one go-routine at a time.
package shared

// Strong is a handle owning a share of a value. The zero value is an empty
// handle.
type Strong[T any] struct {
	noCopy noCopy
	ctrl   *control[T]
}

// New creates a strong handle owning value. If value is nil, the handle is
// empty.
func New[T any](value *T) *Strong[T] {
	s := &Strong[T]{}
	if value != nil {
		s.ctrl = newControl(value)
	}
	return s
}

// FromWeak creates a strong handle sharing the value observed by w.
// ErrDanglingReference is returned if the value has already been destroyed or
// if w is empty. No reference count is modified on error.
func FromWeak[T any](w *Weak[T]) (*Strong[T], error) {
	if w.Expired() {
		return nil, ErrDanglingReference
	}

	w.ctrl.retainStrong()
	return &Strong[T]{ctrl: w.ctrl}, nil
}

// Clone returns a new handle sharing ownership with s.
func (s *Strong[T]) Clone() *Strong[T] {
	if s == nil || s.ctrl == nil {
		return &Strong[T]{}
	}
	s.ctrl.retainStrong()
	return &Strong[T]{ctrl: s.ctrl}
}

// Move transfers ownership to a new handle. s will be empty afterwards.
func (s *Strong[T]) Move() *Strong[T] {
	to := &Strong[T]{}
	if s != nil {
		to.ctrl, s.ctrl = s.ctrl, nil
	}
	return to
}

// Reset releases the current share and takes ownership of value. Passing nil
// leaves s empty.
func (s *Strong[T]) Reset(value *T) {
	tmp := New(value)
	s.Swap(tmp)
	tmp.Release()
}

// Assign releases the current share and shares ownership with other instead.
// Assigning a handle to itself, or to a handle sharing the same value, does
// not modify the reference count.
func (s *Strong[T]) Assign(other *Strong[T]) {
	if s == other {
		return
	}
	tmp := other.Clone()
	s.Swap(tmp)
	tmp.Release()
}

// MoveFrom releases the current share and takes over the share of other.
// other will be empty afterwards.
func (s *Strong[T]) MoveFrom(other *Strong[T]) {
	if s == other {
		return
	}
	tmp := other.Move()
	s.Swap(tmp)
	tmp.Release()
}

// Swap exchanges the values owned by s and other. No reference count is
// modified.
func (s *Strong[T]) Swap(other *Strong[T]) {
	s.ctrl, other.ctrl = other.ctrl, s.ctrl
}

// Get returns the owned value, or nil if s is empty.
func (s *Strong[T]) Get() *T {
	if s == nil || s.ctrl == nil {
		return nil
	}
	return s.ctrl.value
}

// Deref returns the owned value. Dereferencing an empty handle is a
// programming error and reported via the panic function.
func (s *Strong[T]) Deref() *T {
	if !s.Valid() {
		Panic(ErrEmptyHandle)
		return nil
	}
	return s.ctrl.value
}

// UseCount returns the number of strong handles sharing the value, or 0 if s
// is empty.
func (s *Strong[T]) UseCount() int {
	if s == nil || s.ctrl == nil {
		return 0
	}
	return s.ctrl.useCount()
}

// Valid reports whether s owns a value.
func (s *Strong[T]) Valid() bool {
	return s != nil && s.ctrl != nil
}

// Weak creates a weak handle observing the value owned by s.
func (s *Strong[T]) Weak() *Weak[T] {
	return NewWeak(s)
}

// Release gives up the share owned by s. The value is destroyed if s was the
// last strong handle. Releasing an empty handle is a no-op.
func (s *Strong[T]) Release() {
	if s == nil || s.ctrl == nil {
		return
	}
	ctrl := s.ctrl
	s.ctrl = nil
	ctrl.releaseStrong()
}

// Trace returns the recorded event history of the shared control record. The
// history is only available if traceback was enabled when the value was
// first shared.
func (s *Strong[T]) Trace() string {
	if s == nil || s.ctrl == nil {
		return ""
	}
	return s.ctrl.trace.String()
}
