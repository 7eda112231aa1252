// Command cineforge is the CLI for the cineforge movie production client. It
// talks to the backend directly for interactive operations and to the local
// watcher daemon over a Unix socket for production state.
package main
