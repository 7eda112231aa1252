// Package models defines the row types and enums mirrored from the backend
// database (projects, clips, credit transactions, profiles, universes) plus
// the stage vocabulary used for production display. All lifecycle state is
// owned by the server; these types exist so the client can decode, cache, and
// render what it is pushed.
package models
