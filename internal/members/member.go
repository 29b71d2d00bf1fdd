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

	"github.com/cockroachdb/errors"

	"github.com/coufalja/raftclient/logger"
	"github.com/coufalja/raftclient/raftio"
)

var plog = logger.GetLogger("members")

var (
	// ErrMemberClosed is the error returned when using a member that has been
	// removed from the connection table.
	ErrMemberClosed = errors.New("member closed")
	// ErrTableClosed is the error returned when reconciling a closed
	// connection table.
	ErrTableClosed = errors.New("connection table closed")
)

// Member is a cluster member with a lazily established connection. At most one
// call is in flight on a member at any time.
type Member struct {
	id        uint64
	addr      string
	transport raftio.ITransport
	mu        sync.Mutex
	conn      raftio.IConnection
	closed    bool
}

// NewMember returns a member, no connection is made until the first call.
func NewMember(id uint64, addr string, t raftio.ITransport) *Member {
	return &Member{
		id:        id,
		addr:      addr,
		transport: t,
	}
}

// ID returns the member ID.
func (m *Member) ID() uint64 {
	return m.id
}

// Address returns the member address.
func (m *Member) Address() string {
	return m.addr
}

// Connected returns a boolean value indicating whether the member currently
// holds a connection.
func (m *Member) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn != nil
}

// Do invokes f with exclusive access to the member's connection. The
// connection is dialed when absent and dropped when f returns an error so the
// next call dials again.
func (m *Member) Do(ctx context.Context, f func(raftio.IConnection) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrMemberClosed
	}
	if m.conn == nil {
		conn, err := m.transport.Dial(ctx, m.addr)
		if err != nil {
			return errors.Wrapf(err, "dial %s", m.addr)
		}
		m.conn = conn
	}
	if err := f(m.conn); err != nil {
		m.resetLocked()
		return err
	}
	return nil
}

// ClusterInfo requests the cluster member list from the member.
func (m *Member) ClusterInfo(ctx context.Context) (raftio.ClusterInfo, error) {
	var info raftio.ClusterInfo
	err := m.Do(ctx, func(conn raftio.IConnection) error {
		var err error
		info, err = conn.ClusterInfo(ctx)
		return err
	})
	return info, err
}

// Query sends a query to the member.
func (m *Member) Query(ctx context.Context,
	req raftio.QueryRequest) (raftio.QueryResponse, error) {
	var resp raftio.QueryResponse
	err := m.Do(ctx, func(conn raftio.IConnection) error {
		var err error
		resp, err = conn.Query(ctx, req)
		return err
	})
	return resp, err
}

// SubmitCommand submits a command to the member.
func (m *Member) SubmitCommand(ctx context.Context,
	req raftio.CommandRequest) (raftio.CommandResponse, error) {
	var resp raftio.CommandResponse
	err := m.Do(ctx, func(conn raftio.IConnection) error {
		var err error
		resp, err = conn.SubmitCommand(ctx, req)
		return err
	})
	return resp, err
}

// Close closes the member. It waits for the in flight call, if any.
func (m *Member) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.resetLocked()
}

func (m *Member) resetLocked() {
	if m.conn == nil {
		return
	}
	if err := m.conn.Close(); err != nil {
		plog.Warningf("failed to close connection to %s, %v", m.addr, err)
	}
	m.conn = nil
}
