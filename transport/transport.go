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
Package transport provides an in-memory raftio.ITransport implementation. It
routes calls to raftio.IRaftRPCHandler instances registered in the same
process, which makes it suitable for tests and for embedding a client next to
its servers.
*/
package transport

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/coufalja/raftclient/logger"
	"github.com/coufalja/raftclient/raftio"
)

var plog = logger.GetLogger("transport")

var (
	// ErrStopped is the error returned to indicate that the connection has
	// already been stopped.
	ErrStopped = errors.New("connection stopped")
	// ErrUnreachable is the error returned when no handler is registered for
	// the target address.
	ErrUnreachable = errors.New("address unreachable")
	// ErrNotSupported is returned by HandlerFuncs for unset functions.
	ErrNotSupported = errors.New("rpc not supported")
)

// InMemory is an in-memory transport.
type InMemory struct {
	mu       sync.RWMutex
	handlers map[string]raftio.IRaftRPCHandler
	dials    map[string]int
	closes   map[string]int
}

var _ raftio.ITransport = (*InMemory)(nil)

// NewInMemory returns a new InMemory transport with no registered handlers.
func NewInMemory() *InMemory {
	return &InMemory{
		handlers: make(map[string]raftio.IRaftRPCHandler),
		dials:    make(map[string]int),
		closes:   make(map[string]int),
	}
}

// Name returns the type name of the transport.
func (t *InMemory) Name() string {
	return "in-memory"
}

// Register makes h reachable at addr, replacing any existing handler.
func (t *InMemory) Register(addr string, h raftio.IRaftRPCHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[addr] = h
}

// Unregister makes addr unreachable. Existing connections fail their next
// call.
func (t *InMemory) Unregister(addr string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.handlers, addr)
}

// Dial returns a connection to addr. It never fails, the address is resolved
// on each call.
func (t *InMemory) Dial(ctx context.Context, addr string) (raftio.IConnection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.Lock()
	t.dials[addr]++
	t.mu.Unlock()
	plog.Debugf("dialed %s", addr)
	return &conn{t: t, addr: addr}, nil
}

// Dials returns the number of times addr has been dialed.
func (t *InMemory) Dials(addr string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.dials[addr]
}

// Closes returns the number of connections to addr that have been closed.
func (t *InMemory) Closes(addr string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.closes[addr]
}

func (t *InMemory) handler(addr string) (raftio.IRaftRPCHandler, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok := t.handlers[addr]
	if !ok {
		return nil, errors.Wrapf(ErrUnreachable, "%s", addr)
	}
	return h, nil
}

type conn struct {
	t      *InMemory
	addr   string
	mu     sync.Mutex
	closed bool
}

func (c *conn) target(ctx context.Context) (raftio.IRaftRPCHandler, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, ErrStopped
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.t.handler(c.addr)
}

func (c *conn) ClusterInfo(ctx context.Context) (raftio.ClusterInfo, error) {
	h, err := c.target(ctx)
	if err != nil {
		return raftio.ClusterInfo{}, err
	}
	return h.ClusterInfo(ctx)
}

func (c *conn) Query(ctx context.Context,
	req raftio.QueryRequest) (raftio.QueryResponse, error) {
	h, err := c.target(ctx)
	if err != nil {
		return raftio.QueryResponse{}, err
	}
	return h.Query(ctx, req)
}

func (c *conn) SubmitCommand(ctx context.Context,
	req raftio.CommandRequest) (raftio.CommandResponse, error) {
	h, err := c.target(ctx)
	if err != nil {
		return raftio.CommandResponse{}, err
	}
	return h.SubmitCommand(ctx, req)
}

func (c *conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrStopped
	}
	c.closed = true
	c.t.mu.Lock()
	c.t.closes[c.addr]++
	c.t.mu.Unlock()
	return nil
}

// HandlerFuncs adapts plain functions to raftio.IRaftRPCHandler. Unset
// functions fail with ErrNotSupported.
type HandlerFuncs struct {
	ClusterInfoFunc   func(context.Context) (raftio.ClusterInfo, error)
	QueryFunc         func(context.Context, raftio.QueryRequest) (raftio.QueryResponse, error)
	SubmitCommandFunc func(context.Context, raftio.CommandRequest) (raftio.CommandResponse, error)
}

var _ raftio.IRaftRPCHandler = (*HandlerFuncs)(nil)

// ClusterInfo implements raftio.IRaftRPCHandler.
func (h *HandlerFuncs) ClusterInfo(ctx context.Context) (raftio.ClusterInfo, error) {
	if h.ClusterInfoFunc == nil {
		return raftio.ClusterInfo{}, ErrNotSupported
	}
	return h.ClusterInfoFunc(ctx)
}

// Query implements raftio.IRaftRPCHandler.
func (h *HandlerFuncs) Query(ctx context.Context,
	req raftio.QueryRequest) (raftio.QueryResponse, error) {
	if h.QueryFunc == nil {
		return raftio.QueryResponse{}, ErrNotSupported
	}
	return h.QueryFunc(ctx, req)
}

// SubmitCommand implements raftio.IRaftRPCHandler.
func (h *HandlerFuncs) SubmitCommand(ctx context.Context,
	req raftio.CommandRequest) (raftio.CommandResponse, error) {
	if h.SubmitCommandFunc == nil {
		return raftio.CommandResponse{}, ErrNotSupported
	}
	return h.SubmitCommandFunc(ctx, req)
}
