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

// LeaderInfo contains info on the leader tracked by the client.
type LeaderInfo struct {
	LeaderID uint64
	Address  string
}

// MembershipInfo contains info on a membership refresh that changed the member
// set.
type MembershipInfo struct {
	Version uint64
	Members map[uint64]string
	Added   []uint64
	Removed []uint64
}

// IClientEventListener is the interface to allow users to be notified for
// client side events. Methods are invoked one by one from a dedicated
// goroutine, long running work should be offloaded.
type IClientEventListener interface {
	LeaderUpdated(info LeaderInfo)
	MembershipChanged(info MembershipInfo)
}
