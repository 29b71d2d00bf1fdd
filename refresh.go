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
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-multierror"

	"github.com/coufalja/raftclient/internal/members"
	"github.com/coufalja/raftclient/internal/ratchet"
	"github.com/coufalja/raftclient/internal/seedfile"
	"github.com/coufalja/raftclient/raftio"
)

const refreshKey = "refresh"

// Refresh updates the cluster membership from the first candidate member that
// returns it. Candidates are the current members followed by the seeds. When
// no candidate returns the membership, ErrNoReachableSeed is returned and the
// client state is left unchanged. Concurrent calls share a single refresh
// bound to the client's lifetime, ctx only bounds the wait for its result.
func (c *Client) Refresh(ctx context.Context) error {
	if c.isClosed() {
		return ErrClosed
	}
	ch := c.refreshes.DoChan(refreshKey, func() (interface{}, error) {
		if !c.beginRefresh() {
			return nil, ErrClosed
		}
		defer c.refreshWG.Done()
		return nil, c.refresh(c.ctx)
	})
	select {
	case r := <-ch:
		return r.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) refresh(ctx context.Context) error {
	snap := c.table.Snapshot()
	probes := make(map[uint64]*members.Member)
	defer func() {
		for _, m := range probes {
			m.Close()
		}
	}()
	var result *multierror.Error
	for _, addr := range c.candidates(snap) {
		if err := ctx.Err(); err != nil {
			result = multierror.Append(result, err)
			break
		}
		m, err := c.candidate(snap, probes, addr)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		info, err := c.clusterInfo(ctx, m)
		if err != nil {
			plog.Debugf("failed to get cluster info from %s, %v", addr, err)
			result = multierror.Append(result, errors.Wrapf(err, "%s", addr))
			continue
		}
		if len(info.Members) == 0 {
			result = multierror.Append(result,
				errors.Newf("%s: empty member list", addr))
			continue
		}
		if v := c.MembershipVersion(); info.Version != 0 && info.Version < v {
			plog.Warningf("%s returned membership version %d, have %d",
				addr, info.Version, v)
			result = multierror.Append(result,
				errors.Newf("%s: stale membership version %d", addr, info.Version))
			continue
		}
		if c.isClosed() {
			return ErrClosed
		}
		return c.apply(info, probes)
	}
	c.metrics.refreshFailures.Inc()
	if result == nil {
		return ErrNoReachableSeed
	}
	return errors.Mark(errors.Wrap(result, "refresh membership"), ErrNoReachableSeed)
}

// candidates returns current member addresses in ID order followed by seeds.
func (c *Client) candidates(snap *members.Snapshot) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(addr string) {
		if _, ok := seen[addr]; ok {
			return
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	for _, m := range snap.Members() {
		add(m.Address())
	}
	for _, addr := range c.seeds {
		add(addr)
	}
	if c.cfg.SeedProvider != nil {
		for _, addr := range dedup(c.cfg.SeedProvider.Seeds()) {
			add(addr)
		}
	}
	return out
}

// candidate returns the member used to contact addr, reusing the connected
// member or a probe created earlier in the same refresh.
func (c *Client) candidate(snap *members.Snapshot,
	probes map[uint64]*members.Member, addr string) (*members.Member, error) {
	id := raftio.AddressToID(addr)
	if m, ok := snap.Get(id); ok {
		if m.Address() == addr {
			return m, nil
		}
		plog.Warningf("%s and member %s share ID %d", addr, m.Address(), id)
	}
	if m, ok := probes[id]; ok {
		if m.Address() != addr {
			plog.Warningf("%s and %s share ID %d, skipped", addr, m.Address(), id)
			return nil, errors.Newf("%s: member ID %d collision", addr, id)
		}
		return m, nil
	}
	m := members.NewMember(id, addr, c.transport)
	probes[id] = m
	return m, nil
}

func (c *Client) clusterInfo(ctx context.Context,
	m *members.Member) (raftio.ClusterInfo, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return m.ClusterInfo(ctx)
}

func (c *Client) apply(info raftio.ClusterInfo,
	probes map[uint64]*members.Member) error {
	version := info.Version
	if v := c.MembershipVersion(); v > version {
		version = v
	}
	change, err := c.table.Reconcile(info.Members, version, probes)
	if err != nil {
		if errors.Is(err, members.ErrTableClosed) {
			return ErrClosed
		}
		return err
	}
	versionChanged := ratchet.MaxUint64(&c.membershipVersion, info.Version)
	c.metrics.refreshes.Inc()
	if info.LeaderID != 0 {
		c.setLeader(info.LeaderID)
	} else if id := c.LeaderID(); id != 0 {
		if _, ok := info.Members[id]; !ok {
			c.clearLeader(id)
		}
	}
	if change.IsEmpty() && !versionChanged {
		return nil
	}
	plog.Infof("membership updated, version %d, %d members, added %v, removed %v",
		version, len(info.Members), change.Added, change.Removed)
	addrs := c.table.Snapshot().Addresses()
	if !change.IsEmpty() {
		c.events.MembershipChanged(raftio.MembershipInfo{
			Version: version,
			Members: addrs,
			Added:   change.Added,
			Removed: change.Removed,
		})
	}
	if len(c.cfg.StateFile) > 0 {
		s := seedfile.State{Version: version, Members: addrs}
		if err := seedfile.Save(c.cfg.Expert.FS, c.cfg.StateFile, s); err != nil {
			plog.Warningf("failed to save state file %s, %v", c.cfg.StateFile, err)
		}
	}
	return nil
}

// maybeRefresh refreshes the membership unless the refresh budget is used up.
func (c *Client) maybeRefresh(ctx context.Context) {
	if c.bucket.TakeAvailable(1) == 0 {
		plog.Debugf("membership refresh skipped, rate limited")
		return
	}
	if err := c.Refresh(ctx); err != nil {
		plog.Warningf("membership refresh failed, %v", err)
	}
}

func (c *Client) refreshWorker(tickc <-chan time.Time) {
	for {
		select {
		case <-tickc:
			if atomic.LoadUint32(&c.closed) == 1 {
				return
			}
			if err := c.Refresh(c.ctx); err != nil {
				plog.Warningf("periodic membership refresh failed, %v", err)
			}
		case <-c.stopper.ShouldStop():
			return
		}
	}
}
