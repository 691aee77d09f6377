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

import "github.com/urso/sderr"

// refCount is a plain (non-atomic) reference counter. Action is run every
// time the counter drops to zero.
//
// The zero value holds no references. A refCount must only be accessed by the
// go-routine owning the control record it belongs to.
type refCount struct {
	Action func()
	count  uint
}

const refCountMax = ^uint(0)

var (
	errRetainOverflow   = sderr.New("ref count overflow")
	errReleasedTooOften = sderr.New("ref count released too often")
)

// Retain increases the ref count.
func (c *refCount) Retain() error {
	if c.count == refCountMax {
		return errRetainOverflow
	}
	c.count++
	return nil
}

// Release decreases the reference count. It returns true, if the reference
// count has reached zero.
// Releasing a counter that is already zero returns an error and leaves the
// counter unchanged.
func (c *refCount) Release() (bool, error) {
	if c.count == 0 {
		return false, errReleasedTooOften
	}

	c.count--
	if c.count != 0 {
		return false, nil
	}
	if c.Action != nil {
		c.Action()
	}
	return true, nil
}

// Count reports the current number of references.
func (c *refCount) Count() uint {
	return c.count
}
