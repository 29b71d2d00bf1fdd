// Copyright 2017-2021 Lei Ni (nilei81@gmail.com) and other contributors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
Package ratchet provides lock-free values that never decrease.
*/
package ratchet

import (
	"sync/atomic"

	"github.com/coufalja/raftclient/raftio"
)

// MaxUint64 stores v into addr when v is greater than the stored value. It
// returns a boolean value indicating whether the stored value was changed.
func MaxUint64(addr *uint64, v uint64) bool {
	for {
		cur := atomic.LoadUint64(addr)
		if cur >= v {
			return false
		}
		if atomic.CompareAndSwapUint64(addr, cur, v) {
			return true
		}
	}
}

// Watermark is the highest log position observed by a client. Both fields are
// published together so readers never observe a torn pair.
type Watermark struct {
	p atomic.Pointer[raftio.Position]
}

// Load returns the current watermark.
func (w *Watermark) Load() raftio.Position {
	if p := w.p.Load(); p != nil {
		return *p
	}
	return raftio.Position{}
}

// Advance moves the watermark to the per field maximum of its current value
// and p. It returns the resulting watermark.
func (w *Watermark) Advance(p raftio.Position) raftio.Position {
	for {
		old := w.p.Load()
		var cur raftio.Position
		if old != nil {
			cur = *old
		}
		next := cur
		if p.LogID > next.LogID {
			next.LogID = p.LogID
		}
		if p.LogTerm > next.LogTerm {
			next.LogTerm = p.LogTerm
		}
		if next == cur {
			return cur
		}
		if w.p.CompareAndSwap(old, &next) {
			return next
		}
	}
}
