// Package database is the metadata store of the file indexer.
//
// A single SQLite file holds one table, files, keyed by the unique
// full_path, with indices on filename, full_path, item_type and
// parent_path. Writes are upserts so rescanning a path overwrites its row.
//
// Connections are kept in a registry keyed by owner. A scan worker tags its
// context with WithOwner, the first operation opens its connection
// (write-ahead logging, synchronous=OFF) and CloseConn releases it when the
// worker exits. SQLite's file lock serializes writers across connections.
//
// Query methods (SearchFiles, SearchFolders, SearchByExtension, Stats,
// Clear) run on the caller's registry connection as well.
package database
