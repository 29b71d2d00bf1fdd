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
	"github.com/cockroachdb/errors"

	"github.com/coufalja/raftclient/internal/members"
)

var (
	// ErrNoReachableSeed is the error returned when no candidate address
	// returned the cluster membership. When returned by New, no client is
	// created. When returned by Refresh, the client state is unchanged.
	ErrNoReachableSeed = errors.New("no reachable seed")
	// ErrTransport is the error returned when a call failed in the transport
	// or its response could not be decoded. The transport's error is kept as
	// the cause.
	ErrTransport = errors.New("transport failure")
	// ErrStaleExhausted is the error returned when every member contacted by
	// a query was behind the client's watermark.
	ErrStaleExhausted = errors.New("stale replicas, attempts exhausted")
	// ErrLeaderRedirectExhausted is the error returned when a command was
	// redirected more times than allowed.
	ErrLeaderRedirectExhausted = errors.New("leader redirects, attempts exhausted")
	// ErrNoMembers is the error returned when the client knows no member, or
	// when every attempt picked a member removed by a concurrent refresh.
	ErrNoMembers = errors.New("no cluster member")
	// ErrUnknownOp is the error returned by Execute for messages of unknown
	// operation type.
	ErrUnknownOp = errors.New("unknown operation type")
	// ErrClosed is the error returned when using a closed client.
	ErrClosed = errors.New("client closed")
)

// IsTransportError returns a boolean value indicating whether err is a
// per-call transport failure.
func IsTransportError(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsTempError returns a boolean value indicating whether err is a failure
// that may not happen again when the call is retried later.
func IsTempError(err error) bool {
	return errors.Is(err, ErrTransport) ||
		errors.Is(err, ErrStaleExhausted) ||
		errors.Is(err, ErrLeaderRedirectExhausted) ||
		errors.Is(err, members.ErrMemberClosed)
}

// membersClosedError is returned when every attempt picked a member removed by
// a concurrent refresh.
func membersClosedError(attempts uint64) error {
	return errors.Mark(errors.Wrapf(ErrNoMembers,
		"members closed during %d attempts", attempts), members.ErrMemberClosed)
}

func transportError(err error, m *members.Member) error {
	return errors.Mark(errors.Wrapf(err,
		"member %d (%s)", m.ID(), m.Address()), ErrTransport)
}
