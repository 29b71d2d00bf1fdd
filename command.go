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
	"time"

	"github.com/cockroachdb/errors"

	"github.com/coufalja/raftclient/internal/members"
	"github.com/coufalja/raftclient/internal/payload"
	"github.com/coufalja/raftclient/raftio"
)

// Command submits a command to the specified state machine function and
// returns its result once applied. The command is sent to the tracked leader,
// or to the next member round robin when the leader is unknown. Redirects
// update the tracked leader, ErrLeaderRedirectExhausted is returned after
// MaxCommandAttempts members.
//
// A transport failure is returned as is, the command may or may not have been
// applied.
func (c *Client) Command(ctx context.Context,
	smID uint64, fnID uint64, data []byte) ([]byte, error) {
	if c.isClosed() {
		return nil, ErrClosed
	}
	c.metrics.commands.Inc()
	defer c.metrics.commandDuration.UpdateDuration(time.Now())
	enc, ct, err := payload.Encode(c.cfg.EntryCompressionType, data)
	if err != nil {
		return nil, err
	}
	req := raftio.CommandRequest{
		ServiceID:   smID,
		FunctionID:  fnID,
		Payload:     enc,
		Compression: ct,
	}
	redirected := false
	for attempt := uint64(0); attempt < c.cfg.MaxCommandAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m := c.commandTarget(c.table.Snapshot())
		if m == nil {
			return nil, ErrNoMembers
		}
		resp, err := c.submit(ctx, m, req)
		if err != nil {
			c.clearLeader(m.ID())
			if errors.Is(err, members.ErrMemberClosed) {
				continue
			}
			c.metrics.transportFailures.Inc()
			return nil, transportError(err, m)
		}
		switch resp.Status {
		case raftio.CommandOK:
			c.setLeader(m.ID())
			c.watermark.Advance(resp.Applied)
			result, err := payload.Decode(resp.Compression, resp.Payload)
			if err != nil {
				return nil, transportError(err, m)
			}
			return result, nil
		case raftio.CommandNotLeader:
			redirected = true
			c.metrics.redirects.Inc()
			c.followRedirect(ctx, m, resp.LeaderID)
		default:
			return nil, transportError(
				errors.Newf("unknown command status %d", resp.Status), m)
		}
	}
	if !redirected {
		return nil, membersClosedError(c.cfg.MaxCommandAttempts)
	}
	return nil, errors.Wrapf(ErrLeaderRedirectExhausted,
		"%d attempts", c.cfg.MaxCommandAttempts)
}

// commandTarget returns the tracked leader when it is a known member, the next
// member round robin otherwise.
func (c *Client) commandTarget(snap *members.Snapshot) *members.Member {
	if id := c.LeaderID(); id != 0 {
		if m, ok := snap.Get(id); ok {
			return m
		}
	}
	return snap.At(c.nextPos())
}

func (c *Client) followRedirect(ctx context.Context,
	from *members.Member, hint uint64) {
	if hint == 0 || hint == from.ID() {
		plog.Debugf("member %d is not the leader and has no leader hint", from.ID())
		c.clearLeader(from.ID())
		return
	}
	plog.Debugf("member %d redirected to %d", from.ID(), hint)
	c.setLeader(hint)
	if _, ok := c.table.Snapshot().Get(hint); !ok {
		c.maybeRefresh(ctx)
	}
}

func (c *Client) submit(ctx context.Context, m *members.Member,
	req raftio.CommandRequest) (raftio.CommandResponse, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return m.SubmitCommand(ctx, req)
}
