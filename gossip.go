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
	"sort"

	"github.com/hashicorp/memberlist"

	"github.com/coufalja/raftclient/config"
)

// GossipSeeds provides seed addresses learned from a memberlist gossip pool.
// Servers taking part in the pool advertise their client facing address as
// node metadata, see AddressDelegate.
type GossipSeeds struct {
	list *memberlist.Memberlist
}

var _ config.ISeedProvider = (*GossipSeeds)(nil)

// NewGossipSeeds returns a seed provider backed by list.
func NewGossipSeeds(list *memberlist.Memberlist) *GossipSeeds {
	return &GossipSeeds{list: list}
}

// Seeds returns the valid addresses advertised by live pool members.
func (g *GossipSeeds) Seeds() []string {
	var out []string
	for _, n := range g.list.Members() {
		addr := string(n.Meta)
		if len(addr) == 0 {
			continue
		}
		if !config.IsValidAddress(addr) {
			plog.Warningf("node %s advertised invalid address %q", n.Name, addr)
			continue
		}
		out = append(out, addr)
	}
	sort.Strings(out)
	return out
}

// AddressDelegate is a memberlist.Delegate advertising Address as the local
// node's metadata.
type AddressDelegate struct {
	Address string
}

var _ memberlist.Delegate = (*AddressDelegate)(nil)

// NodeMeta implements memberlist.Delegate.
func (d *AddressDelegate) NodeMeta(limit int) []byte {
	if len(d.Address) > limit {
		plog.Panicf("address %s exceeds the %d bytes meta limit", d.Address, limit)
	}
	return []byte(d.Address)
}

// NotifyMsg implements memberlist.Delegate.
func (d *AddressDelegate) NotifyMsg([]byte) {}

// GetBroadcasts implements memberlist.Delegate.
func (d *AddressDelegate) GetBroadcasts(overhead, limit int) [][]byte {
	return nil
}

// LocalState implements memberlist.Delegate.
func (d *AddressDelegate) LocalState(join bool) []byte {
	return nil
}

// MergeRemoteState implements memberlist.Delegate.
func (d *AddressDelegate) MergeRemoteState(buf []byte, join bool) {}
