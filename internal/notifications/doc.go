// Package notifications sends ntfy push notifications for watcher events:
// project completion, failure, and stitch kickoff. Unconfigured installs get
// a noop service so call sites never branch.
package notifications
