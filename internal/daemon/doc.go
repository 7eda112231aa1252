// Package daemon hosts the long-running watcher: the realtime change feed,
// per-project production reconcilers, the local row mirror, and push
// notifications, behind a single-instance file lock.
package daemon
