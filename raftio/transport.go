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

package raftio

import (
	"context"
)

// ITransport is the interface used by raftclient to create connections to
// cluster members. Implementations own encoding, TLS, transport level retries
// and reconnection.
type ITransport interface {
	// Name returns the type name of the ITransport instance.
	Name() string
	// Dial returns a connection to the member listening on the specified
	// address. Dial is allowed to be lazy, the first RPC on the returned
	// connection may be the point where the network connection is made.
	Dial(ctx context.Context, addr string) (IConnection, error)
}

// IConnection is the interface used to make RPC calls to a single cluster
// member. raftclient never issues concurrent calls on the same IConnection.
type IConnection interface {
	// ClusterInfo requests the authoritative member list of the cluster.
	ClusterInfo(ctx context.Context) (ClusterInfo, error)
	// Query requests a read only query to be served by the member.
	Query(ctx context.Context, req QueryRequest) (QueryResponse, error)
	// SubmitCommand submits a command to be replicated and applied.
	SubmitCommand(ctx context.Context, req CommandRequest) (CommandResponse, error)
	// Close closes the connection.
	Close() error
}

// IRaftRPCHandler is the server side of the client protocol. It is implemented
// by Raft servers and used by in-process transports.
type IRaftRPCHandler interface {
	ClusterInfo(ctx context.Context) (ClusterInfo, error)
	Query(ctx context.Context, req QueryRequest) (QueryResponse, error)
	SubmitCommand(ctx context.Context, req CommandRequest) (CommandResponse, error)
}
