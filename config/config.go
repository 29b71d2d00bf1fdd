// Copyright 2017-2020 Lei Ni (nilei81@gmail.com) and other contributors.
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
Package config contains functions and types used for managing raftclient's
configurations.
*/
package config

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cockroachdb/errors"
	"github.com/lni/goutils/stringutil"
	"github.com/lni/vfs"

	"github.com/coufalja/raftclient/logger"
	"github.com/coufalja/raftclient/raftio"
)

var plog = logger.GetLogger("config")

const (
	defaultMaxQueryAttempts   uint64 = 8
	defaultMaxCommandAttempts uint64 = 8
	defaultMinRefreshInterval        = time.Second
	defaultRefreshBurst       uint64 = 1
)

// CompressionType is the type of the compression.
type CompressionType = raftio.CompressionType

const (
	// NoCompression is the CompressionType value used to indicate not to use
	// any compression.
	NoCompression = raftio.NoCompression
	// Snappy is the CompressionType value used to indicate that google snappy
	// is used for data compression.
	Snappy = raftio.Snappy
)

// ISeedProvider provides additional seed addresses used when looking up the
// cluster membership.
type ISeedProvider interface {
	Seeds() []string
}

// ClientConfig is used to configure Client instances.
type ClientConfig struct {
	// Seeds is the list of addresses contacted to learn the cluster membership
	// when the client is created. Any single reachable member is enough. Order
	// and duplicates do not matter.
	Seeds []string
	// MaxQueryAttempts is the maximum number of members a query is sent to
	// before giving up because every contacted member was behind the client's
	// watermark. Default value is 8.
	MaxQueryAttempts uint64
	// MaxCommandAttempts is the maximum number of members a command is sent to
	// while following leader redirects. Default value is 8.
	MaxCommandAttempts uint64
	// RequestTimeout bounds each individual RPC made by the client. The timeout
	// is applied through the context passed to the transport, 0 means the
	// caller's context is used as is.
	RequestTimeout time.Duration
	// RefreshInterval is the interval between two background membership
	// refreshes. 0 disables background refreshes, membership is then only
	// refreshed when Client.Refresh is called or when a redirect names an
	// unknown leader.
	RefreshInterval time.Duration
	// MinRefreshInterval is the minimum interval between two membership
	// refreshes triggered by redirects to unknown leaders. Default value is 1
	// second.
	MinRefreshInterval time.Duration
	// RefreshBurst is the number of redirect triggered refreshes allowed in a
	// burst. Default value is 1.
	RefreshBurst uint64
	// EntryCompressionType is the compression type applied to query and command
	// payloads sent by the client. No compression is used by default.
	EntryCompressionType CompressionType
	// StateFile is the path of the file used to persist the last known cluster
	// membership. Addresses found in it are used as additional seeds. Leave it
	// empty to disable persistence.
	StateFile string
	// SeedProvider is an optional source of additional seed addresses, see
	// raftclient.GossipSeeds.
	SeedProvider ISeedProvider
	// EventListener is the listener for client side events such as leader and
	// membership changes.
	EventListener raftio.IClientEventListener
	// Expert contains options for expert users and tests.
	Expert ExpertConfig
}

// Validate validates the ClientConfig instance and return an error when any
// member field is considered as invalid.
func (c *ClientConfig) Validate() error {
	if len(c.Seeds) == 0 && len(c.StateFile) == 0 && c.SeedProvider == nil {
		return errors.New("no seed address")
	}
	for _, addr := range c.Seeds {
		if !stringutil.IsValidAddress(addr) {
			return errors.Newf("invalid seed address %q", addr)
		}
	}
	if c.MaxQueryAttempts == 0 {
		return errors.New("MaxQueryAttempts must be > 0")
	}
	if c.MaxCommandAttempts == 0 {
		return errors.New("MaxCommandAttempts must be > 0")
	}
	if c.RequestTimeout < 0 {
		return errors.New("invalid RequestTimeout")
	}
	if c.RefreshInterval < 0 {
		return errors.New("invalid RefreshInterval")
	}
	if c.MinRefreshInterval <= 0 {
		return errors.New("MinRefreshInterval must be > 0")
	}
	if c.RefreshBurst == 0 {
		return errors.New("RefreshBurst must be > 0")
	}
	if c.RefreshInterval > 0 && c.RefreshInterval < c.MinRefreshInterval {
		plog.Warningf("RefreshInterval %s is shorter than MinRefreshInterval %s",
			c.RefreshInterval, c.MinRefreshInterval)
	}
	if c.EntryCompressionType != Snappy &&
		c.EntryCompressionType != NoCompression {
		return errors.New("unknown compression type")
	}
	return nil
}

// Prepare sets the default value for ClientConfig.
func (c *ClientConfig) Prepare() {
	if c.MaxQueryAttempts == 0 {
		c.MaxQueryAttempts = defaultMaxQueryAttempts
	}
	if c.MaxCommandAttempts == 0 {
		c.MaxCommandAttempts = defaultMaxCommandAttempts
	}
	if c.MinRefreshInterval == 0 {
		c.MinRefreshInterval = defaultMinRefreshInterval
	}
	if c.RefreshBurst == 0 {
		c.RefreshBurst = defaultRefreshBurst
	}
	if c.Expert.FS == nil {
		c.Expert.FS = vfs.Default
	}
	if c.Expert.Clock == nil {
		c.Expert.Clock = clock.New()
	}
}

// IsValidAddress returns a boolean value indicating whether the input address
// is valid.
func IsValidAddress(addr string) bool {
	return stringutil.IsValidAddress(addr)
}

// IFS is the filesystem interface used by the client.
type IFS = vfs.FS

// ExpertConfig contains options for expert users. Users are recommended not to
// set ExpertConfig unless it is absoloutely necessary.
type ExpertConfig struct {
	// FS is the filesystem used for the state file.
	FS IFS
	// Clock is the clock driving background refreshes and refresh rate
	// limiting.
	Clock clock.Clock
}
