package litesql

// #include "bridge.h"
import "C"

import (
	"sync/atomic"
	"unsafe"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// OpenMode selects the engine threading mode of a connection.
type OpenMode int

const (
	// OpenDefault uses the linked library's compile-time threading mode.
	OpenDefault OpenMode = iota
	// OpenNoMutex opens in multi-thread mode: the connection itself is
	// unserialized, which suits litesql's single-owner usage discipline.
	OpenNoMutex
	// OpenFullMutex opens in serialized mode.
	OpenFullMutex
)

// TransactionKind selects the locking behavior of an explicit transaction.
type TransactionKind int

const (
	// TransactionDefault defers to Config.DefaultTransaction, and to
	// TransactionDeferred when that too is unset.
	TransactionDefault TransactionKind = iota
	TransactionDeferred
	TransactionImmediate
	TransactionExclusive
)

func (k TransactionKind) sql() string {
	switch k {
	case TransactionImmediate:
		return "BEGIN IMMEDIATE"
	case TransactionExclusive:
		return "BEGIN EXCLUSIVE"
	default:
		return "BEGIN DEFERRED"
	}
}

// Config configures a Conn at Open.
type Config struct {
	// Mode is the engine threading mode.
	Mode OpenMode
	// ForeignKeys enables foreign key enforcement at open.
	ForeignKeys bool
	// Busy arbitrates lock contention. Nil is equivalent to BusyFail().
	Busy BusyPolicy
	// Trace, when set, is invoked with the SQL text of each statement as
	// the engine begins running it.
	Trace func(sql string)
	// DefaultTransaction is the TransactionKind used by InTransaction
	// when called with TransactionDefault.
	DefaultTransaction TransactionKind
	// StatementCacheSize bounds each of the two prepared statement caches.
	// Zero selects DefaultStatementCacheSize.
	StatementCacheSize int
}

// DefaultStatementCacheSize bounds each statement cache when
// Config.StatementCacheSize is zero.
const DefaultStatementCacheSize = 64

// Conn is a single database connection. It is owned by one context at a
// time: it may be handed between goroutines, but concurrent method calls
// panic. All registered callbacks (functions, collations, observers, busy
// handlers, trace) are invoked on the context currently driving the Conn.
type Conn struct {
	db   *C.sqlite3
	path string
	cfg  Config

	inUse  int32
	closed bool

	funcs      map[funcKey]*scalarFunction
	collations map[string]*collation

	selectStmts *lru.Cache
	updateStmts *lru.Cache
	primaryKeys *lru.Cache

	observers     []TransactionObserver
	txn           txnState
	vetoErr       error
	inTransaction bool

	hookHandle  uintptr
	busyHandle  uintptr
	traceHandle uintptr
}

// Open opens or creates the database at |path| (a filename, ":memory:", or
// a "file:" URI) and applies |cfg|.
func Open(path string, cfg Config) (*Conn, error) {
	var flags = C.int(C.SQLITE_OPEN_READWRITE | C.SQLITE_OPEN_CREATE | C.SQLITE_OPEN_URI)
	switch cfg.Mode {
	case OpenNoMutex:
		flags |= C.SQLITE_OPEN_NOMUTEX
	case OpenFullMutex:
		flags |= C.SQLITE_OPEN_FULLMUTEX
	}

	var cPath = C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	var db *C.sqlite3
	if rc := C.sqlite3_open_v2(cPath, &db, flags, nil); rc != C.SQLITE_OK {
		var err = errCode(rc, C.GoString(C.sqlite3_errmsg(db)), "")
		C.sqlite3_close(db)
		return nil, errors.WithMessagef(err, "opening database %q", path)
	}
	C.sqlite3_extended_result_codes(db, 1)

	var size = cfg.StatementCacheSize
	if size <= 0 {
		size = DefaultStatementCacheSize
	}
	var c = &Conn{
		db:         db,
		path:       path,
		cfg:        cfg,
		funcs:      make(map[funcKey]*scalarFunction),
		collations: make(map[string]*collation),
	}
	c.selectStmts, _ = lru.NewWithEvict(size, evictStmt)
	c.updateStmts, _ = lru.NewWithEvict(size, evictStmt)
	c.primaryKeys, _ = lru.New(size)

	if cfg.Busy == nil {
		cfg.Busy = BusyFail()
	}
	if err := cfg.Busy.apply(c); err != nil {
		_ = c.closeLocked()
		return nil, errors.WithMessage(err, "applying busy policy")
	}
	if cfg.Trace != nil {
		c.traceHandle = registerHandle(c)
		if rc := C.bridgeSetTrace(db, C.uintptr_t(c.traceHandle)); rc != C.SQLITE_OK {
			var err = errCode(rc, "sqlite3_trace_v2 failed", "")
			_ = c.closeLocked()
			return nil, errors.WithMessage(err, "installing trace")
		}
	}
	if cfg.ForeignKeys {
		if _, err := c.execute("PRAGMA foreign_keys = ON", nil); err != nil {
			_ = c.closeLocked()
			return nil, errors.WithMessage(err, "enabling foreign keys")
		}
	}
	return c, nil
}

// enter asserts single-owner usage. It panics if the Conn is concurrently
// in use by another context, or has been closed.
func (c *Conn) enter() {
	if !atomic.CompareAndSwapInt32(&c.inUse, 0, 1) {
		panic("litesql: concurrent use of Conn")
	}
	if c.closed {
		atomic.StoreInt32(&c.inUse, 0)
		panic("litesql: use of closed Conn")
	}
}

func (c *Conn) exit() { atomic.StoreInt32(&c.inUse, 0) }

// Close finalizes cached statements, tears down registered callbacks, and
// closes the underlying handle. Close of a closed Conn is a no-op.
func (c *Conn) Close() error {
	if !atomic.CompareAndSwapInt32(&c.inUse, 0, 1) {
		panic("litesql: concurrent use of Conn")
	}
	defer c.exit()

	if c.closed {
		return nil
	}
	return c.closeLocked()
}

func (c *Conn) closeLocked() error {
	c.closed = true

	// Finalize cached statements ahead of sqlite3_close, which fails with
	// SQLITE_BUSY while statements remain live.
	c.selectStmts.Purge()
	c.updateStmts.Purge()
	c.primaryKeys.Purge()

	if c.hookHandle != 0 {
		C.bridgeRemoveHooks(c.db)
		unregisterHandle(c.hookHandle)
		c.hookHandle = 0
	}
	if c.busyHandle != 0 {
		unregisterHandle(c.busyHandle)
		c.busyHandle = 0
	}
	if c.traceHandle != 0 {
		unregisterHandle(c.traceHandle)
		c.traceHandle = 0
	}
	// Function and collation registrations die with the handle; release
	// their handle-table entries.
	for k, fn := range c.funcs {
		unregisterHandle(fn.handle)
		delete(c.funcs, k)
	}
	for name, col := range c.collations {
		unregisterHandle(col.handle)
		delete(c.collations, name)
	}

	if rc := C.sqlite3_close(c.db); rc != C.SQLITE_OK {
		var err = c.lastError("")
		if err.Code.Primary() == ErrBusy {
			// Statements prepared outside the caches are still live.
			// Degrade to a deferred close rather than leaking the handle.
			C.sqlite3_close_v2(c.db)
			log.WithFields(log.Fields{"path": c.path, "err": err}).
				Error("connection closed with outstanding statements")
		}
		c.db = nil
		return err
	}
	c.db = nil
	return nil
}

// Path returns the path the Conn was opened with.
func (c *Conn) Path() string { return c.path }

// LastInsertRowID returns the rowid of the most recent successful INSERT
// on this connection.
func (c *Conn) LastInsertRowID() int64 {
	c.enter()
	defer c.exit()
	return int64(C.sqlite3_last_insert_rowid(c.db))
}

// Changes returns the number of rows changed by the most recently completed
// INSERT, UPDATE or DELETE.
func (c *Conn) Changes() int64 {
	c.enter()
	defer c.exit()
	return int64(C.sqlite3_changes(c.db))
}

// TotalChanges returns the number of rows changed since the Conn was opened.
func (c *Conn) TotalChanges() int64 {
	c.enter()
	defer c.exit()
	return int64(C.sqlite3_total_changes(c.db))
}

// AutoCommit reports whether the connection is outside any transaction.
func (c *Conn) AutoCommit() bool {
	c.enter()
	defer c.exit()
	return C.sqlite3_get_autocommit(c.db) != 0
}
