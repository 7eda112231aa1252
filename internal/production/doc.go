// Package production mirrors server-pushed project and clip state into a
// local display snapshot. It is an observer/fold over the realtime feed, not
// an enforcing state machine: transitions are whatever the server sends, and
// updates are applied best-effort monotonically. Its single owned side effect
// is the at-most-once stitch request when all expected clips complete.
package production
