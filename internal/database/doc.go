// Package database provides SQLite-based scan history for a11yscan.
//
// Every completed scan can be stored in the HistoryDB. The compare command
// reads the two most recent scans of a URL back and diffs them to show which
// violations are new and which were resolved.
//
// Design decision: We use SQLite (via modernc.org/sqlite) because:
// 1. The database is a single file in the XDG data directory
// 2. The CGO-free driver keeps cross-compilation simple
// 3. History is written once per scan, so one connection is enough
package database
