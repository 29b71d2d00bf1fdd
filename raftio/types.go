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

// CompressionType is the type of the compression applied to a payload.
type CompressionType uint8

const (
	// NoCompression is the CompressionType value used to indicate that the
	// payload is not compressed.
	NoCompression CompressionType = iota
	// Snappy is the CompressionType value used to indicate that the payload is
	// compressed using google snappy.
	Snappy
)

func (c CompressionType) String() string {
	switch c {
	case NoCompression:
		return "none"
	case Snappy:
		return "snappy"
	default:
		return "unknown"
	}
}

// ClusterInfo is the authoritative member list returned by a cluster member.
type ClusterInfo struct {
	// Members maps member ID to member address. Member IDs are expected to be
	// AddressToID(address).
	Members map[uint64]string
	// LeaderID is the ID of the leader known to the responding member, 0 when
	// unknown.
	LeaderID uint64
	// Version is the membership version, e.g. the index of the last applied
	// config change. 0 means the responder does not track versions.
	Version uint64
}

// Position is a position in the Raft log identified by its index and term.
type Position struct {
	LogID   uint64
	LogTerm uint64
}

// IsEmpty returns a boolean value indicating whether the position carries no
// information.
func (p Position) IsEmpty() bool {
	return p.LogID == 0 && p.LogTerm == 0
}

// QueryRequest is a read only request sent to any cluster member.
type QueryRequest struct {
	ServiceID   uint64
	FunctionID  uint64
	Payload     []byte
	Compression CompressionType
	// Watermark is the highest log position the client has observed. Members
	// that have not applied up to it must answer QueryStale.
	Watermark Position
}

// QueryStatus is the outcome of a query.
type QueryStatus uint8

const (
	// QuerySuccess means the query was served.
	QuerySuccess QueryStatus = iota
	// QueryStale means the member's applied state is behind the request's
	// watermark.
	QueryStale
)

func (s QueryStatus) String() string {
	switch s {
	case QuerySuccess:
		return "success"
	case QueryStale:
		return "stale"
	default:
		return "unknown"
	}
}

// QueryResponse is the response of a query.
type QueryResponse struct {
	Status      QueryStatus
	Payload     []byte
	Compression CompressionType
	// Applied is the log position of the responder's state machine.
	Applied Position
}

// CommandRequest is a request to be replicated through the Raft log.
type CommandRequest struct {
	ServiceID   uint64
	FunctionID  uint64
	Payload     []byte
	Compression CompressionType
}

// CommandStatus is the outcome of a command submission.
type CommandStatus uint8

const (
	// CommandOK means the command was committed and applied.
	CommandOK CommandStatus = iota
	// CommandNotLeader means the contacted member is not the leader.
	CommandNotLeader
)

func (s CommandStatus) String() string {
	switch s {
	case CommandOK:
		return "ok"
	case CommandNotLeader:
		return "not-leader"
	default:
		return "unknown"
	}
}

// CommandResponse is the response of a command submission.
type CommandResponse struct {
	Status      CommandStatus
	Payload     []byte
	Compression CompressionType
	// LeaderID is the redirect hint returned with CommandNotLeader, 0 when the
	// responder does not know the leader.
	LeaderID uint64
	// Applied is the log position of the applied command, empty when not
	// reported.
	Applied Position
}
