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
Package members contains the connection table used by raftclient to track
cluster members and their connections.
*/
package members

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/btree"

	"github.com/coufalja/raftclient/raftio"
)

const btreeDegree = 16

// Snapshot is an immutable view of the connection table. Members are ordered
// by ascending ID.
type Snapshot struct {
	version uint64
	ordered []*Member
	byID    map[uint64]*Member
	addrs   map[uint64]string
}

// Len returns the number of members.
func (s *Snapshot) Len() int {
	return len(s.ordered)
}

// Version returns the membership version the snapshot was built from.
func (s *Snapshot) Version() uint64 {
	return s.version
}

// At returns the member at position pos modulo the member count, or nil when
// the snapshot is empty.
func (s *Snapshot) At(pos uint64) *Member {
	if len(s.ordered) == 0 {
		return nil
	}
	return s.ordered[pos%uint64(len(s.ordered))]
}

// Get returns the member with the specified ID.
func (s *Snapshot) Get(id uint64) (*Member, bool) {
	m, ok := s.byID[id]
	return m, ok
}

// Members returns the members in ascending ID order.
func (s *Snapshot) Members() []*Member {
	return append([]*Member(nil), s.ordered...)
}

// Addresses returns a copy of the ID to address map.
func (s *Snapshot) Addresses() map[uint64]string {
	out := make(map[uint64]string, len(s.addrs))
	for id, addr := range s.addrs {
		out[id] = addr
	}
	return out
}

// Change describes the outcome of a reconciliation.
type Change struct {
	Version uint64
	Added   []uint64
	Removed []uint64
}

// IsEmpty returns a boolean value indicating whether the reconciliation left
// the connected member set untouched.
func (c Change) IsEmpty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0
}

// Table is the connection table. Readers use lock-free snapshots, writers are
// serialised and publish a new snapshot once their update is complete.
type Table struct {
	transport raftio.ITransport
	mu        sync.Mutex
	// index is only accessed by writers holding mu
	index  *btree.BTreeG[*Member]
	closed bool
	snap   atomic.Pointer[Snapshot]
}

// NewTable returns an empty connection table.
func NewTable(t raftio.ITransport) *Table {
	tbl := &Table{
		transport: t,
		index: btree.NewG(btreeDegree, func(a, b *Member) bool {
			return a.id < b.id
		}),
	}
	tbl.snap.Store(&Snapshot{
		byID:  make(map[uint64]*Member),
		addrs: make(map[uint64]string),
	})
	return tbl
}

// Snapshot returns the current snapshot.
func (t *Table) Snapshot() *Snapshot {
	return t.snap.Load()
}

// Reconcile makes the table match the remote member list. Members present on
// both sides keep their connections. Members missing from remote are closed.
// New members are created without connecting unless probes holds a member
// with the same ID and address, in which case that member is adopted and
// deleted from probes. ErrTableClosed is returned once the table has been
// closed, probes are then left untouched.
func (t *Table) Reconcile(remote map[uint64]string, version uint64,
	probes map[uint64]*Member) (Change, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return Change{}, ErrTableClosed
	}
	old := t.snap.Load()
	change := Change{Version: version}
	var closing []*Member
	for id, m := range old.byID {
		addr, ok := remote[id]
		if ok && addr == m.addr {
			continue
		}
		if ok {
			plog.Warningf("member %d moved from %s to %s", id, m.addr, addr)
		}
		t.index.Delete(m)
		closing = append(closing, m)
		change.Removed = append(change.Removed, id)
	}
	addrs := make(map[uint64]string, len(remote))
	for id, addr := range remote {
		addrs[id] = addr
		if want := raftio.AddressToID(addr); want != id {
			plog.Warningf("member %d has address %s which maps to %d",
				id, addr, want)
		}
		if _, ok := t.index.Get(&Member{id: id}); ok {
			continue
		}
		m, ok := probes[id]
		if ok && m.addr == addr {
			delete(probes, id)
		} else {
			m = NewMember(id, addr, t.transport)
		}
		t.index.ReplaceOrInsert(m)
		change.Added = append(change.Added, id)
	}
	next := &Snapshot{
		version: version,
		ordered: make([]*Member, 0, t.index.Len()),
		byID:    make(map[uint64]*Member, t.index.Len()),
		addrs:   addrs,
	}
	t.index.Ascend(func(m *Member) bool {
		next.ordered = append(next.ordered, m)
		next.byID[m.id] = m
		return true
	})
	t.snap.Store(next)
	for _, m := range closing {
		m.Close()
	}
	sortIDs(change.Added)
	sortIDs(change.Removed)
	return change, nil
}

// Close closes all members and empties the table. The table can't be
// reconciled afterwards.
func (t *Table) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	old := t.snap.Load()
	t.index.Clear(false)
	t.snap.Store(&Snapshot{
		version: old.version,
		byID:    make(map[uint64]*Member),
		addrs:   make(map[uint64]string),
	})
	for _, m := range old.ordered {
		m.Close()
	}
}

func sortIDs(ids []uint64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
