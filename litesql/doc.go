// Package litesql manages SQLite connections at the level of the engine's
// native C interface. It layers connection configuration, custom SQL function
// and collation registration, transaction observation with commit veto,
// prepared statement caching, multi-statement execution, and primary key
// introspection over a single sqlite3* handle.
//
// A Conn is owned by one context at a time: it may move between goroutines,
// but concurrent use is a programming error and panics. Callers requiring
// concurrency should open one Conn per goroutine, typically in WAL mode with
// a BusyWait or BusyRetry policy to arbitrate write contention.
package litesql
