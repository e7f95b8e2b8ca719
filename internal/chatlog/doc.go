// Package chatlog persists conversation buffers to disk and reads them back
// as backlog.
//
// # Layout
//
// One file per server, target and day:
//
//	<dir>/<server>/<target>_<YYYY-MM-DD>.log
//
// Server and target names come from the network, so both pass through
// security.SanitizeFilename before they touch the filesystem.
//
// # Writing
//
// Writer owns a single goroutine and a bounded queue. Write never blocks the
// caller; when the queue is full the line is dropped and counted.
//
// # Reading
//
// Tail walks a target's daily files from newest to oldest and returns the
// last N lines in chronological order. Each file is read with a ring buffer
// so memory stays proportional to N, not to the file size.
package chatlog
