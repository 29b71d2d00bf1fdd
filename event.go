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

package raftclient

import (
	"github.com/coufalja/raftclient/raftio"
)

const eventQueueLength = 64

type eventType uint8

const (
	leaderUpdated eventType = iota
	membershipChanged
)

type clientEvent struct {
	typ        eventType
	leader     raftio.LeaderInfo
	membership raftio.MembershipInfo
}

type eventListener struct {
	stopc  chan struct{}
	events chan clientEvent
	ul     raftio.IClientEventListener
}

func newEventListener(l raftio.IClientEventListener,
	stopc chan struct{}) *eventListener {
	return &eventListener{
		stopc:  stopc,
		events: make(chan clientEvent, eventQueueLength),
		ul:     l,
	}
}

func (l *eventListener) LeaderUpdated(info raftio.LeaderInfo) {
	l.publish(clientEvent{typ: leaderUpdated, leader: info})
}

func (l *eventListener) MembershipChanged(info raftio.MembershipInfo) {
	l.publish(clientEvent{typ: membershipChanged, membership: info})
}

func (l *eventListener) publish(e clientEvent) {
	if l.ul == nil {
		return
	}
	select {
	case l.events <- e:
	case <-l.stopc:
		return
	}
}

func (l *eventListener) run() {
	if l.ul == nil {
		return
	}
	for {
		select {
		case e := <-l.events:
			l.handle(e)
		case <-l.stopc:
			return
		}
	}
}

func (l *eventListener) handle(e clientEvent) {
	switch e.typ {
	case leaderUpdated:
		l.ul.LeaderUpdated(e.leader)
	case membershipChanged:
		l.ul.MembershipChanged(e.membership)
	default:
		panic("unknown event type")
	}
}
