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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddressToIDIsDeterministic(t *testing.T) {
	assert.Equal(t, AddressToID("10.0.0.1:8000"), AddressToID("10.0.0.1:8000"))
	assert.NotEqual(t, AddressToID("10.0.0.1:8000"), AddressToID("10.0.0.2:8000"))
}

func TestAddressToIDIsNotNormalised(t *testing.T) {
	assert.NotEqual(t, AddressToID("localhost:8000"), AddressToID("127.0.0.1:8000"))
}

func TestPositionIsEmpty(t *testing.T) {
	assert.True(t, Position{}.IsEmpty())
	assert.False(t, Position{LogID: 1}.IsEmpty())
	assert.False(t, Position{LogTerm: 1}.IsEmpty())
}
