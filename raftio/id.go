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

import (
	"github.com/cespare/xxhash/v2"
)

// IDHashVersion is the version of the address to member ID mapping. Clients
// and servers must agree on it, a change requires a coordinated upgrade.
const IDHashVersion = 1

// AddressToID returns the member ID of the specified address, the 64 bits
// xxhash of the address string as given. Addresses are not normalised, the
// same member must be advertised using the same string everywhere.
//
// Collisions are not assumed impossible. Two distinct addresses with the same
// ID can not both be cluster members, raftclient keeps the first one it sees
// and logs the conflict.
func AddressToID(addr string) uint64 {
	return xxhash.Sum64String(addr)
}
