// Package ports finds the TCP port a running web app listens on.
//
// The spawning side does not control how a child publishes its address, so
// detection is an explicit ordered chain of heuristics, stopping at the first
// answer:
//
//  1. static-declaration: port literals in the app's entry point, each
//     confirmed by a loopback connect
//  2. pid-socket-table: listening sockets owned by the pid
//  3. band-socket-table: any listening socket in 8000-9000
//  4. conventional-probe: connect to 8000, 8080 and 8001-8010
//
// Steps 3 and 4 break ties by preferring 8000, then the lowest port.
// Every step is racy; none is authoritative.
package ports
