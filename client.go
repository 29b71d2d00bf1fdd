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
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/juju/ratelimit"
	"github.com/lni/goutils/syncutil"
	"golang.org/x/sync/singleflight"

	"github.com/coufalja/raftclient/config"
	"github.com/coufalja/raftclient/internal/members"
	"github.com/coufalja/raftclient/internal/ratchet"
	"github.com/coufalja/raftclient/internal/seedfile"
	"github.com/coufalja/raftclient/logger"
	"github.com/coufalja/raftclient/raftio"
)

var plog = logger.GetLogger("raftclient")

// Client is the client of a Raft cluster. It is safe for concurrent use by
// multiple goroutines.
type Client struct {
	// accessed atomically
	pos               uint64
	leaderID          uint64
	membershipVersion uint64
	closed            uint32

	cfg       config.ClientConfig
	transport raftio.ITransport
	seeds     []string
	table     *members.Table
	watermark ratchet.Watermark
	refreshes singleflight.Group
	// mu guards closed against refreshWG.Add
	mu        sync.Mutex
	refreshWG sync.WaitGroup
	bucket    *ratelimit.Bucket
	stopper   *syncutil.Stopper
	ctx       context.Context
	cancel    context.CancelFunc
	events    *eventListener
	metrics   *clientMetrics
}

// New creates a Client and looks up the cluster membership using the seed
// addresses specified in cfg. ErrNoReachableSeed is returned when none of the
// seeds returned the membership.
func New(ctx context.Context,
	cfg config.ClientConfig, t raftio.ITransport) (*Client, error) {
	if t == nil {
		return nil, errors.New("nil transport")
	}
	cfg.Prepare()
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	stopper := syncutil.NewStopper()
	c := &Client{
		pos:       rand.Uint64(),
		cfg:       cfg,
		transport: t,
		table:     members.NewTable(t),
		bucket: ratelimit.NewBucketWithClock(cfg.MinRefreshInterval,
			int64(cfg.RefreshBurst), cfg.Expert.Clock),
		stopper: stopper,
		events:  newEventListener(cfg.EventListener, stopper.ShouldStop()),
		metrics: newClientMetrics(),
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.seeds = c.initialSeeds()
	stopper.RunWorker(c.events.run)
	if err := c.Refresh(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if cfg.RefreshInterval > 0 {
		ticker := cfg.Expert.Clock.Ticker(cfg.RefreshInterval)
		stopper.RunWorker(func() {
			c.refreshWorker(ticker.C)
			ticker.Stop()
		})
	}
	plog.Infof("client created, %d members, leader %d",
		c.table.Snapshot().Len(), c.LeaderID())
	return c, nil
}

func (c *Client) initialSeeds() []string {
	seeds := append([]string(nil), c.cfg.Seeds...)
	if len(c.cfg.StateFile) > 0 {
		s, ok, err := seedfile.Load(c.cfg.Expert.FS, c.cfg.StateFile)
		if err != nil {
			plog.Warningf("failed to load state file %s, %v", c.cfg.StateFile, err)
		} else if ok {
			seeds = append(seeds, s.Addresses()...)
		}
	}
	return dedup(seeds)
}

// Close stops background workers, waits for the in-flight membership refresh
// and closes all member connections.
func (c *Client) Close() {
	c.mu.Lock()
	if !atomic.CompareAndSwapUint32(&c.closed, 0, 1) {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	c.cancel()
	c.stopper.Stop()
	c.refreshWG.Wait()
	c.table.Close()
}

// beginRefresh registers a refresh with Close, false is returned when the
// client is already closed.
func (c *Client) beginRefresh() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isClosed() {
		return false
	}
	c.refreshWG.Add(1)
	return true
}

func (c *Client) isClosed() bool {
	return atomic.LoadUint32(&c.closed) == 1
}

// Watermark returns the highest Raft log position observed by the client.
func (c *Client) Watermark() raftio.Position {
	return c.watermark.Load()
}

// Members returns the member ID to address map of the last successful
// membership refresh.
func (c *Client) Members() map[uint64]string {
	return c.table.Snapshot().Addresses()
}

// LeaderID returns the ID of the tracked leader, 0 when unknown.
func (c *Client) LeaderID() uint64 {
	return atomic.LoadUint64(&c.leaderID)
}

// MembershipVersion returns the highest membership version accepted by the
// client.
func (c *Client) MembershipVersion() uint64 {
	return atomic.LoadUint64(&c.membershipVersion)
}

func (c *Client) setLeader(id uint64) {
	if old := atomic.SwapUint64(&c.leaderID, id); old == id || id == 0 {
		return
	}
	addr := c.table.Snapshot().Addresses()[id]
	plog.Infof("leader updated to %d (%s)", id, addr)
	c.events.LeaderUpdated(raftio.LeaderInfo{LeaderID: id, Address: addr})
}

func (c *Client) clearLeader(id uint64) {
	atomic.CompareAndSwapUint64(&c.leaderID, id, 0)
}

func (c *Client) nextPos() uint64 {
	return atomic.AddUint64(&c.pos, 1) - 1
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.RequestTimeout > 0 {
		return context.WithTimeout(ctx, c.cfg.RequestTimeout)
	}
	return ctx, func() {}
}

func dedup(addrs []string) []string {
	seen := make(map[string]struct{}, len(addrs))
	out := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	sort.Strings(out)
	return out
}
