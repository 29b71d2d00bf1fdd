/*
Package raftclient is the client side of a Raft replicated state machine
cluster. It tracks the cluster membership, routes read only queries across
replicas and routes commands to the leader.

The Client struct is the facade interface for all features provided by the
raftclient package. A Client is created from a set of seed addresses, any
reachable member is enough for it to learn the authoritative member list. The
list is refreshed when Client.Refresh is called, periodically when
ClientConfig.RefreshInterval is set, and when a leader redirect names a member
the client does not know about.

Queries are spread round robin across all members. Every query carries the
highest Raft log position the client has observed so far, known as its
watermark. A member whose applied state is behind the watermark answers with a
stale response and the query is retried on the next member, up to
ClientConfig.MaxQueryAttempts members. Once a query returned, later queries
from the same Client never observe an older state. Commands are submitted to
the tracked leader, redirects returned by followers update the tracked leader
and the command is retried, up to ClientConfig.MaxCommandAttempts members.

Each member is reached through a single connection created by the configured
raftio.ITransport, at most one call is in flight on it at any time. The
transport owns encoding, timeouts, retries and TLS, raftclient only bounds each
call by ClientConfig.RequestTimeout.
*/
package raftclient
