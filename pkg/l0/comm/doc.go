// Package comm provides L0 protocol support.
package comm

// L0 protocol is communicated between a swarm node and an
// external controller over a peer-to-peer serial channel.
//
// It is a line protocol without line terminators on the request side:
// a command ends when no new byte arrives within the inter-character
// timeout, so the sender must stream all bytes of a command without a gap.
// Trailing CR/LF are tolerated and stripped.
//
// Node output lines are terminated by CRLF and are one of:
//
//   suc <cmd> [args]   command succeeded
//   err <cmd>          command recognized but rejected
//   #debug <text>      informational
//   !<name> <value>    asynchronous change notification
//   >>>                node is ready after boot
//
// Producer: swarm node
// Consumer: controller
