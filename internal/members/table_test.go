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

package members

import (
	"context"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coufalja/raftclient/raftio"
)

type fakeConn struct {
	t      *fakeTransport
	addr   string
	closed bool
}

func (c *fakeConn) ClusterInfo(context.Context) (raftio.ClusterInfo, error) {
	if c.t.fail[c.addr] {
		return raftio.ClusterInfo{}, errors.New("unreachable")
	}
	return raftio.ClusterInfo{}, nil
}

func (c *fakeConn) Query(context.Context,
	raftio.QueryRequest) (raftio.QueryResponse, error) {
	return raftio.QueryResponse{Payload: []byte(c.addr)}, nil
}

func (c *fakeConn) SubmitCommand(context.Context,
	raftio.CommandRequest) (raftio.CommandResponse, error) {
	return raftio.CommandResponse{}, nil
}

func (c *fakeConn) Close() error {
	c.t.mu.Lock()
	defer c.t.mu.Unlock()
	c.closed = true
	c.t.closes[c.addr]++
	return nil
}

type fakeTransport struct {
	mu     sync.Mutex
	dials  map[string]int
	closes map[string]int
	fail   map[string]bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		dials:  make(map[string]int),
		closes: make(map[string]int),
		fail:   make(map[string]bool),
	}
}

func (t *fakeTransport) Name() string { return "fake" }

func (t *fakeTransport) Dial(_ context.Context, addr string) (raftio.IConnection, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dials[addr]++
	return &fakeConn{t: t, addr: addr}, nil
}

func (t *fakeTransport) totalDials() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, v := range t.dials {
		n += v
	}
	return n
}

func memberMap(addrs ...string) map[uint64]string {
	m := make(map[uint64]string)
	for _, addr := range addrs {
		m[raftio.AddressToID(addr)] = addr
	}
	return m
}

func ids(s *Snapshot) map[uint64]struct{} {
	out := make(map[uint64]struct{})
	for _, m := range s.Members() {
		out[m.ID()] = struct{}{}
	}
	return out
}

func mustReconcile(t *testing.T, tbl *Table, remote map[uint64]string,
	version uint64, probes map[uint64]*Member) Change {
	t.Helper()
	change, err := tbl.Reconcile(remote, version, probes)
	require.NoError(t, err)
	return change
}

func connectAll(t *testing.T, s *Snapshot) {
	for _, m := range s.Members() {
		_, err := m.Query(context.Background(), raftio.QueryRequest{})
		require.NoError(t, err)
	}
}

func TestReconcileMatchesRemote(t *testing.T) {
	ft := newFakeTransport()
	tbl := NewTable(ft)
	change := mustReconcile(t, tbl, memberMap("a:1", "b:1", "d:1"), 1, nil)
	assert.Len(t, change.Added, 3)
	assert.Empty(t, change.Removed)
	connectAll(t, tbl.Snapshot())
	d, ok := tbl.Snapshot().Get(raftio.AddressToID("d:1"))
	require.True(t, ok)

	remote := memberMap("a:1", "b:1", "c:1")
	change = mustReconcile(t, tbl, remote, 2, nil)
	assert.Equal(t, []uint64{raftio.AddressToID("c:1")}, change.Added)
	assert.Equal(t, []uint64{raftio.AddressToID("d:1")}, change.Removed)

	snap := tbl.Snapshot()
	assert.Equal(t, remote, snap.Addresses())
	want := make(map[uint64]struct{})
	for id := range remote {
		want[id] = struct{}{}
	}
	assert.Equal(t, want, ids(snap))
	assert.Equal(t, uint64(2), snap.Version())
	assert.Equal(t, 1, ft.closes["d:1"])
	_, err := d.Query(context.Background(), raftio.QueryRequest{})
	assert.True(t, errors.Is(err, ErrMemberClosed))
}

func TestReconcileIsIdempotent(t *testing.T) {
	ft := newFakeTransport()
	tbl := NewTable(ft)
	remote := memberMap("a:1", "b:1", "c:1")
	mustReconcile(t, tbl, remote, 0, nil)
	connectAll(t, tbl.Snapshot())
	before := tbl.Snapshot().Members()
	dials := ft.totalDials()

	change := mustReconcile(t, tbl, remote, 0, nil)
	assert.True(t, change.IsEmpty())
	connectAll(t, tbl.Snapshot())
	after := tbl.Snapshot().Members()
	require.Len(t, after, len(before))
	for i := range before {
		assert.Same(t, before[i], after[i])
	}
	assert.Equal(t, dials, ft.totalDials())
	assert.Empty(t, ft.closes)
}

func TestReconcileAdoptsProbe(t *testing.T) {
	ft := newFakeTransport()
	tbl := NewTable(ft)
	id := raftio.AddressToID("a:1")
	probe := NewMember(id, "a:1", ft)
	_, err := probe.ClusterInfo(context.Background())
	require.NoError(t, err)
	stray := NewMember(raftio.AddressToID("z:1"), "z:1", ft)
	probes := map[uint64]*Member{id: probe, stray.ID(): stray}

	mustReconcile(t, tbl, memberMap("a:1", "b:1"), 0, probes)
	m, ok := tbl.Snapshot().Get(id)
	require.True(t, ok)
	assert.Same(t, probe, m)
	assert.True(t, m.Connected())
	assert.NotContains(t, probes, id)
	assert.Contains(t, probes, stray.ID())
	assert.Equal(t, 1, ft.dials["a:1"])
}

func TestReconcileReplacesMovedMember(t *testing.T) {
	ft := newFakeTransport()
	tbl := NewTable(ft)
	mustReconcile(t, tbl, map[uint64]string{7: "a:1"}, 0, nil)
	change := mustReconcile(t, tbl, map[uint64]string{7: "b:1"}, 0, nil)
	assert.Equal(t, []uint64{7}, change.Added)
	assert.Equal(t, []uint64{7}, change.Removed)
	m, ok := tbl.Snapshot().Get(7)
	require.True(t, ok)
	assert.Equal(t, "b:1", m.Address())
}

func TestSnapshotOrderIsByID(t *testing.T) {
	tbl := NewTable(newFakeTransport())
	mustReconcile(t, tbl, map[uint64]string{30: "c", 10: "a", 20: "b"}, 0, nil)
	snap := tbl.Snapshot()
	assert.Equal(t, uint64(10), snap.At(0).ID())
	assert.Equal(t, uint64(20), snap.At(1).ID())
	assert.Equal(t, uint64(30), snap.At(2).ID())
	assert.Equal(t, uint64(10), snap.At(3).ID())
}

func TestEmptySnapshot(t *testing.T) {
	tbl := NewTable(newFakeTransport())
	assert.Nil(t, tbl.Snapshot().At(5))
	assert.Equal(t, 0, tbl.Snapshot().Len())
}

func TestOldSnapshotIsUnaffectedByReconcile(t *testing.T) {
	tbl := NewTable(newFakeTransport())
	mustReconcile(t, tbl, memberMap("a:1", "b:1"), 0, nil)
	old := tbl.Snapshot()
	mustReconcile(t, tbl, memberMap("c:1"), 0, nil)
	assert.Equal(t, 2, old.Len())
	assert.Equal(t, memberMap("a:1", "b:1"), old.Addresses())
	assert.Equal(t, 1, tbl.Snapshot().Len())
}

func TestTableClose(t *testing.T) {
	ft := newFakeTransport()
	tbl := NewTable(ft)
	mustReconcile(t, tbl, memberMap("a:1", "b:1"), 3, nil)
	connectAll(t, tbl.Snapshot())
	tbl.Close()
	assert.Equal(t, 0, tbl.Snapshot().Len())
	assert.Equal(t, uint64(3), tbl.Snapshot().Version())
	assert.Equal(t, 1, ft.closes["a:1"])
	assert.Equal(t, 1, ft.closes["b:1"])
}

func TestReconcileAfterClose(t *testing.T) {
	ft := newFakeTransport()
	tbl := NewTable(ft)
	mustReconcile(t, tbl, memberMap("a:1"), 1, nil)
	tbl.Close()
	tbl.Close()

	id := raftio.AddressToID("b:1")
	probe := NewMember(id, "b:1", ft)
	_, err := probe.ClusterInfo(context.Background())
	require.NoError(t, err)
	probes := map[uint64]*Member{id: probe}
	_, err = tbl.Reconcile(memberMap("a:1", "b:1"), 2, probes)
	assert.True(t, errors.Is(err, ErrTableClosed))
	assert.Equal(t, 0, tbl.Snapshot().Len())
	assert.Same(t, probe, probes[id])
}

func TestMemberRedialsAfterFailure(t *testing.T) {
	ft := newFakeTransport()
	ft.fail["a:1"] = true
	m := NewMember(1, "a:1", ft)
	_, err := m.ClusterInfo(context.Background())
	require.Error(t, err)
	assert.False(t, m.Connected())
	ft.fail["a:1"] = false
	_, err = m.ClusterInfo(context.Background())
	require.NoError(t, err)
	assert.True(t, m.Connected())
	assert.Equal(t, 2, ft.dials["a:1"])
}
