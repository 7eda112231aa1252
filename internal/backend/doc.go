// Package backend wraps the remote backend-as-a-service: the auth token
// endpoints, PostgREST-style table access, and named edge function RPCs. All
// business logic, media generation, and storage live behind this client; the
// rest of the repository only reads, renders, and triggers.
//
// Errors cross this boundary as typed values (*APIError, *ActiveProjectError,
// package sentinels) so callers never classify failures by message text.
package backend
