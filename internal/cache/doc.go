// Package cache maintains a disposable SQLite mirror of backend rows so the
// CLI can render lists offline and the daemon can seed its watch set. The
// backend owns the data; anything here can be rebuilt by deleting the file.
package cache
