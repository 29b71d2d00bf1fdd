/*
Package raftio contains structs, interfaces and function definitions required
to plug a custom RPC transport into raftclient.

Structs, interfaces and functions defined in the raftio package are only
required when building your custom transport module or when implementing the
server side of the client protocol. Skip this package if you plan to use the
in-memory transport provided by the transport package.
*/
package raftio
