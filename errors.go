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

// ErrDanglingReference is returned by FromWeak if the observed value has
// already been destroyed.
var ErrDanglingReference = sderr.New("dangling reference: weak handle expired")

// ErrEmptyHandle is reported via the panic function when dereferencing an
// empty strong handle.
var ErrEmptyHandle = sderr.New("dereferencing empty strong handle")

// errResurrect is reported if a strong reference is taken on a record whose
// value has already been destroyed.
var errResurrect = sderr.New("retaining strong reference on destroyed value")
