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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestControl(t *testing.T) {
	t.Run("new record holds one strong reference", func(t *testing.T) {
		v := 1
		c := newControl(&v)
		assert.Equal(t, 1, c.useCount())
		assert.Equal(t, uint(0), c.weak.Count())
		assert.False(t, c.destroyed)
		assert.False(t, c.freed)
	})

	t.Run("value is destroyed before record is freed", func(t *testing.T) {
		var order []string
		v := &tracked{}
		c := newControl(v)
		c.strong.Action = func() {
			order = append(order, "destroy")
			assert.False(t, c.freed)
			c.destroy()
		}

		c.retainWeak()
		c.releaseStrong()
		assert.Equal(t, []string{"destroy"}, order)
		assert.Equal(t, 1, v.closed)
		assert.False(t, c.freed)

		c.releaseWeak()
		assert.True(t, c.freed)
	})

	t.Run("live to dead without observers", func(t *testing.T) {
		v := &tracked{}
		c := newControl(v)
		c.releaseStrong()
		assert.True(t, c.destroyed)
		assert.True(t, c.freed)
		assert.Equal(t, 1, v.closed)
	})

	t.Run("weak count dropping to zero keeps live record", func(t *testing.T) {
		v := &tracked{}
		c := newControl(v)
		c.retainWeak()
		c.releaseWeak()
		assert.False(t, c.freed)
		assert.False(t, c.destroyed)
		assert.Same(t, v, c.value)
	})

	t.Run("try retain refuses destroyed value", func(t *testing.T) {
		c := newControl(&tracked{})
		c.retainWeak()
		c.releaseStrong()
		assert.False(t, c.tryRetainStrong())
		assert.Equal(t, 0, c.useCount())
	})

	t.Run("retaining destroyed value is a violation", func(t *testing.T) {
		errs := capturePanics(t)
		c := newControl(&tracked{})
		c.retainWeak()
		c.releaseStrong()

		c.retainStrong()
		require.Len(t, *errs, 1)
		assert.True(t, errors.Is((*errs)[0], errResurrect))
		assert.Equal(t, 0, c.useCount())
	})

	t.Run("releasing too often is a violation", func(t *testing.T) {
		errs := capturePanics(t)
		c := newControl(&tracked{})
		c.releaseStrong()
		c.releaseStrong()
		c.releaseWeak()
		require.Len(t, *errs, 2)
		assert.Equal(t, errReleasedTooOften, (*errs)[0])
		assert.Equal(t, errReleasedTooOften, (*errs)[1])
	})

	t.Run("values without Close are dropped", func(t *testing.T) {
		v := 42
		c := newControl(&v)
		c.releaseStrong()
		assert.True(t, c.destroyed)
		assert.Nil(t, c.value)
	})

	t.Run("close errors are logged", func(t *testing.T) {
		core, logs := observer.New(zapcore.ErrorLevel)
		SetLogger(zap.New(core))
		defer ResetLogger()

		v := &tracked{err: errors.New("oops")}
		s := New(v)
		s.Release()

		assert.Equal(t, 1, v.closed)
		entries := logs.FilterMessage("failed to close shared value").All()
		require.Len(t, entries, 1)
		assert.Contains(t, entries[0].ContextMap(), "error")
	})

	t.Run("violations are logged", func(t *testing.T) {
		capturePanics(t)
		core, logs := observer.New(zapcore.ErrorLevel)
		SetLogger(zap.New(core))
		defer ResetLogger()

		var s Strong[int]
		s.Deref()
		assert.Equal(t, 1, logs.FilterMessage("shared handle contract violation").Len())
	})
}
