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

// SubKey identifies a notification delivered by the subscription subsystem
// layered over state machines. raftclient only defines the key shape.
type SubKey struct {
	ServiceID      uint64
	FunctionID     uint64
	SubscriptionID uint64
	Sequence       uint64
}

// DefaultCallbackServiceID is the service ID used by the subscription
// subsystem when the state machine does not specify one.
var DefaultCallbackServiceID = AddressToID("raftclient.callback.default")
