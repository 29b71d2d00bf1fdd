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

	"github.com/cockroachdb/errors"
)

// OpType is the type of an operation on a state machine.
type OpType uint8

const (
	// OpQuery is a read only operation, it can be served by any member.
	OpQuery OpType = iota
	// OpCommand is an operation that updates the state machine, it is
	// replicated through the leader.
	OpCommand
)

func (op OpType) String() string {
	switch op {
	case OpQuery:
		return "query"
	case OpCommand:
		return "command"
	default:
		return "unknown"
	}
}

// StateMachine identifies a state machine hosted by the cluster.
type StateMachine struct {
	ID uint64
}

// Message is a request to a state machine function.
type Message interface {
	// Encode returns the target function ID, the operation type and the
	// encoded request.
	Encode() (fnID uint64, op OpType, data []byte, err error)
}

// TypedMessage is a Message whose result can be decoded into R.
type TypedMessage[R any] interface {
	Message
	Decode(data []byte) (R, error)
}

// RawMessage is a Message with an already encoded request.
type RawMessage struct {
	FunctionID uint64
	Op         OpType
	Data       []byte
}

// Encode implements Message.
func (m RawMessage) Encode() (uint64, OpType, []byte, error) {
	return m.FunctionID, m.Op, m.Data, nil
}

// Execute sends msg to the specified state machine, as a query or as a
// command depending on its operation type.
func (c *Client) Execute(ctx context.Context,
	sm StateMachine, msg Message) ([]byte, error) {
	fnID, op, data, err := msg.Encode()
	if err != nil {
		return nil, errors.Wrap(err, "encode message")
	}
	switch op {
	case OpQuery:
		return c.Query(ctx, sm.ID, fnID, data)
	case OpCommand:
		return c.Command(ctx, sm.ID, fnID, data)
	default:
		return nil, errors.Wrapf(ErrUnknownOp, "%d", op)
	}
}

// ExecuteAs is Execute with the result decoded by msg.
func ExecuteAs[R any](ctx context.Context,
	c *Client, sm StateMachine, msg TypedMessage[R]) (R, error) {
	data, err := c.Execute(ctx, sm, msg)
	if err != nil {
		var zero R
		return zero, err
	}
	r, err := msg.Decode(data)
	if err != nil {
		var zero R
		return zero, errors.Wrap(err, "decode result")
	}
	return r, nil
}
