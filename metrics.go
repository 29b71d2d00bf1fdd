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
	"io"

	"github.com/VictoriaMetrics/metrics"
)

type clientMetrics struct {
	set               *metrics.Set
	queries           *metrics.Counter
	commands          *metrics.Counter
	staleRetries      *metrics.Counter
	redirects         *metrics.Counter
	transportFailures *metrics.Counter
	refreshes         *metrics.Counter
	refreshFailures   *metrics.Counter
	queryDuration     *metrics.Histogram
	commandDuration   *metrics.Histogram
}

func newClientMetrics() *clientMetrics {
	s := metrics.NewSet()
	return &clientMetrics{
		set:               s,
		queries:           s.NewCounter("raftclient_queries_total"),
		commands:          s.NewCounter("raftclient_commands_total"),
		staleRetries:      s.NewCounter("raftclient_query_stale_retries_total"),
		redirects:         s.NewCounter("raftclient_command_redirects_total"),
		transportFailures: s.NewCounter("raftclient_transport_failures_total"),
		refreshes:         s.NewCounter("raftclient_membership_refreshes_total"),
		refreshFailures:   s.NewCounter("raftclient_membership_refresh_failures_total"),
		queryDuration:     s.NewHistogram("raftclient_query_duration_seconds"),
		commandDuration:   s.NewHistogram("raftclient_command_duration_seconds"),
	}
}

// WriteMetrics writes the client's metrics in Prometheus text exposition
// format.
func (c *Client) WriteMetrics(w io.Writer) {
	c.metrics.set.WritePrometheus(w)
}
