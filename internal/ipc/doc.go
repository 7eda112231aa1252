// Package ipc carries control traffic between the CLI and the watcher daemon
// over JSON-RPC on a Unix domain socket.
package ipc
