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

// Query executes a read only query on the specified state machine function.
// Members are selected round robin. Members behind the client's watermark are
// skipped, ErrStaleExhausted is returned when MaxQueryAttempts members were
// all behind. A nil result with a nil error means the state machine returned
// no data.
func (c *Client) Query(ctx context.Context,
	smID uint64, fnID uint64, data []byte) ([]byte, error) {
	if c.isClosed() {
		return nil, ErrClosed
	}
	c.metrics.queries.Inc()
	defer c.metrics.queryDuration.UpdateDuration(time.Now())
	enc, ct, err := payload.Encode(c.cfg.EntryCompressionType, data)
	if err != nil {
		return nil, err
	}
	stale := false
	for attempt := uint64(0); attempt < c.cfg.MaxQueryAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m := c.table.Snapshot().At(c.nextPos())
		if m == nil {
			return nil, ErrNoMembers
		}
		req := raftio.QueryRequest{
			ServiceID:   smID,
			FunctionID:  fnID,
			Payload:     enc,
			Compression: ct,
			Watermark:   c.watermark.Load(),
		}
		resp, err := c.query(ctx, m, req)
		if err != nil {
			if errors.Is(err, members.ErrMemberClosed) {
				continue
			}
			c.metrics.transportFailures.Inc()
			return nil, transportError(err, m)
		}
		switch resp.Status {
		case raftio.QueryStale:
			stale = true
			c.metrics.staleRetries.Inc()
			plog.Debugf("member %d is behind watermark %+v, retrying",
				m.ID(), req.Watermark)
		case raftio.QuerySuccess:
			c.watermark.Advance(resp.Applied)
			result, err := payload.Decode(resp.Compression, resp.Payload)
			if err != nil {
				return nil, transportError(err, m)
			}
			return result, nil
		default:
			return nil, transportError(
				errors.Newf("unknown query status %d", resp.Status), m)
		}
	}
	if !stale {
		return nil, membersClosedError(c.cfg.MaxQueryAttempts)
	}
	return nil, errors.Wrapf(ErrStaleExhausted,
		"%d attempts", c.cfg.MaxQueryAttempts)
}

func (c *Client) query(ctx context.Context, m *members.Member,
	req raftio.QueryRequest) (raftio.QueryResponse, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return m.Query(ctx, req)
}
