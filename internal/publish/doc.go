// Package publish announces generated modules to a socket.io endpoint so run
// control tooling can pick up freshly generated configuration.
package publish
