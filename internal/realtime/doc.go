// Package realtime implements the row-change subscription primitive: a
// phoenix-channel websocket session that joins per-table topics and delivers
// INSERT/UPDATE/DELETE payloads to registered handlers. Reconnects are
// bounded and flat-delay; anything beyond that is the orchestrator's problem.
package realtime
