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

package raftclient

import (
	"context"
	"sync"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/coufalja/raftclient/config"
	"github.com/coufalja/raftclient/internal/payload"
	"github.com/coufalja/raftclient/raftio"
	"github.com/coufalja/raftclient/transport"
)

const (
	addrA = "127.0.0.1:26001"
	addrB = "127.0.0.1:26002"
	addrC = "127.0.0.1:26003"
	addrD = "127.0.0.1:26004"
)

type testReplica struct {
	addr string
	id   uint64

	mu              sync.Mutex
	applied         raftio.Position
	stale           bool
	emptyResult     bool
	queries         int
	commands        int
	lastCompression raftio.CompressionType
}

func (r *testReplica) setApplied(p raftio.Position) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applied = p
}

func (r *testReplica) setStale(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stale = v
}

func (r *testReplica) queryCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.queries
}

func (r *testReplica) commandCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.commands
}

// testCluster is a fake Raft cluster. Every replica answers cluster info with
// the same advertised membership, serves queries when its applied position
// covers the request watermark and accepts commands when it is the leader.
type testCluster struct {
	tr *transport.InMemory

	mu           sync.Mutex
	replicas     map[string]*testReplica
	members      map[uint64]string
	leader       uint64
	hideLeader   bool
	version      uint64
	term         uint64
	clusterCalls int
}

func newTestCluster(addrs ...string) *testCluster {
	tc := &testCluster{
		tr:       transport.NewInMemory(),
		replicas: make(map[string]*testReplica),
		term:     1,
	}
	tc.setMembers(addrs...)
	return tc
}

func (tc *testCluster) setMembers(addrs ...string) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.members = make(map[uint64]string)
	for _, addr := range addrs {
		r, ok := tc.replicas[addr]
		if !ok {
			r = &testReplica{addr: addr, id: raftio.AddressToID(addr)}
			tc.replicas[addr] = r
			tc.tr.Register(addr, tc.handler(r))
		}
		tc.members[r.id] = addr
	}
}

func (tc *testCluster) setLeader(addr string) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if addr == "" {
		tc.leader = 0
		return
	}
	tc.leader = raftio.AddressToID(addr)
}

func (tc *testCluster) setVersion(v uint64) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.version = v
}

func (tc *testCluster) setHideLeader(v bool) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.hideLeader = v
}

func (tc *testCluster) replica(addr string) *testReplica {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.replicas[addr]
}

func (tc *testCluster) clusterInfoCalls() int {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.clusterCalls
}

func (tc *testCluster) handler(r *testReplica) *transport.HandlerFuncs {
	return &transport.HandlerFuncs{
		ClusterInfoFunc: func(context.Context) (raftio.ClusterInfo, error) {
			tc.mu.Lock()
			defer tc.mu.Unlock()
			tc.clusterCalls++
			info := raftio.ClusterInfo{
				Members: make(map[uint64]string, len(tc.members)),
				Version: tc.version,
			}
			if !tc.hideLeader {
				info.LeaderID = tc.leader
			}
			for id, addr := range tc.members {
				info.Members[id] = addr
			}
			return info, nil
		},
		QueryFunc: func(_ context.Context,
			req raftio.QueryRequest) (raftio.QueryResponse, error) {
			data, err := payload.Decode(req.Compression, req.Payload)
			if err != nil {
				return raftio.QueryResponse{}, err
			}
			r.mu.Lock()
			defer r.mu.Unlock()
			r.queries++
			r.lastCompression = req.Compression
			if r.stale ||
				req.Watermark.LogID > r.applied.LogID ||
				req.Watermark.LogTerm > r.applied.LogTerm {
				return raftio.QueryResponse{Status: raftio.QueryStale}, nil
			}
			resp := raftio.QueryResponse{
				Status:  raftio.QuerySuccess,
				Applied: r.applied,
			}
			if !r.emptyResult {
				resp.Payload = []byte(r.addr + "/" + string(data))
			}
			return resp, nil
		},
		SubmitCommandFunc: func(_ context.Context,
			req raftio.CommandRequest) (raftio.CommandResponse, error) {
			data, err := payload.Decode(req.Compression, req.Payload)
			if err != nil {
				return raftio.CommandResponse{}, err
			}
			tc.mu.Lock()
			leader, term := tc.leader, tc.term
			tc.mu.Unlock()
			r.mu.Lock()
			defer r.mu.Unlock()
			r.commands++
			r.lastCompression = req.Compression
			if leader != r.id {
				return raftio.CommandResponse{
					Status:   raftio.CommandNotLeader,
					LeaderID: leader,
				}, nil
			}
			r.applied.LogID++
			r.applied.LogTerm = term
			return raftio.CommandResponse{
				Status:  raftio.CommandOK,
				Payload: []byte("applied/" + string(data)),
				Applied: r.applied,
			}, nil
		},
	}
}

func testConfig(seeds ...string) config.ClientConfig {
	return config.ClientConfig{
		Seeds: seeds,
		Expert: config.ExpertConfig{
			Clock: clock.NewMock(),
		},
	}
}

func newTestClient(t *testing.T, tc *testCluster, cfg config.ClientConfig) *Client {
	t.Helper()
	c, err := New(context.Background(), cfg, tc.tr)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func memberMap(addrs ...string) map[uint64]string {
	m := make(map[uint64]string)
	for _, addr := range addrs {
		m[raftio.AddressToID(addr)] = addr
	}
	return m
}
