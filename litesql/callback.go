package litesql

// #include "bridge.h"
import "C"

import (
	"unsafe"

	"go.litesql.dev/core/metrics"
)

// Trampolines invoked by the engine through bridge.c. Each receives the
// opaque handle issued at registration and maps it back to the Go-side
// registration; see liveHandles in bridge.go.

//export litesqlFuncTrampoline
func litesqlFuncTrampoline(ctx *C.sqlite3_context, argc C.int, argv **C.sqlite3_value) {
	var reg, _ = lookupHandle(uintptr(C.sqlite3_user_data(ctx))).(*scalarFunction)
	if reg == nil {
		C.sqlite3_result_null(ctx)
		return
	}

	var args = make([]Value, int(argc))
	for i, v := range unsafe.Slice(argv, int(argc)) {
		args[i] = valueOfNative(v)
	}

	metrics.FunctionCallsTotal.Inc()
	var out, err = reg.fn(args)
	if err != nil {
		setResultError(ctx, err)
		return
	}
	setResult(ctx, out)
}

//export litesqlCollationTrampoline
func litesqlCollationTrampoline(pApp unsafe.Pointer, aLen C.int, a unsafe.Pointer, bLen C.int, b unsafe.Pointer) C.int {
	var reg, _ = lookupHandle(uintptr(pApp)).(*collation)
	if reg == nil {
		return 0
	}
	var r = reg.fn(
		C.GoStringN((*C.char)(a), aLen),
		C.GoStringN((*C.char)(b), bLen),
	)
	switch {
	case r < 0:
		return -1
	case r > 0:
		return 1
	default:
		return 0
	}
}

//export litesqlCommitHookTrampoline
func litesqlCommitHookTrampoline(pApp unsafe.Pointer) C.int {
	var c, _ = lookupHandle(uintptr(pApp)).(*Conn)
	if c == nil {
		return 0
	}
	for _, obs := range c.observers {
		if err := obs.TransactionWillCommit(); err != nil {
			// Denying the commit rolls the transaction back; the veto
			// error is surfaced at the statement checkpoint.
			c.txn, c.vetoErr = txnPendingVeto, err
			return 1
		}
	}
	c.txn = txnPendingCommit
	return 0
}

//export litesqlRollbackHookTrampoline
func litesqlRollbackHookTrampoline(pApp unsafe.Pointer) {
	var c, _ = lookupHandle(uintptr(pApp)).(*Conn)
	if c == nil {
		return
	}
	// A veto-driven rollback keeps its veto state: the checkpoint must
	// surface the observer's error rather than a plain rollback.
	if c.txn != txnPendingVeto {
		c.txn = txnPendingRollback
	}
}

//export litesqlUpdateHookTrampoline
func litesqlUpdateHookTrampoline(pApp unsafe.Pointer, op C.int, dbName, tblName *C.char, rowID C.sqlite3_int64) {
	var c, _ = lookupHandle(uintptr(pApp)).(*Conn)
	if c == nil {
		return
	}
	var kind ChangeKind
	switch op {
	case C.SQLITE_INSERT:
		kind = ChangeInsert
	case C.SQLITE_DELETE:
		kind = ChangeDelete
	default:
		kind = ChangeUpdate
	}
	var ev = ChangeEvent{
		Kind:     kind,
		Database: C.GoString(dbName),
		Table:    C.GoString(tblName),
		RowID:    int64(rowID),
	}
	for _, obs := range c.observers {
		obs.DatabaseChanged(ev)
	}
}

//export litesqlBusyTrampoline
func litesqlBusyTrampoline(pApp unsafe.Pointer, count C.int) C.int {
	var fn, _ = lookupHandle(uintptr(pApp)).(func(count int) bool)
	if fn == nil || !fn(int(count)) {
		return 0
	}
	metrics.BusyRetriesTotal.Inc()
	return 1
}

//export litesqlTraceTrampoline
func litesqlTraceTrampoline(typ C.uint, pApp, p, x unsafe.Pointer) C.int {
	var c, _ = lookupHandle(uintptr(pApp)).(*Conn)
	if c == nil || c.cfg.Trace == nil || typ != C.SQLITE_TRACE_STMT {
		return 0
	}
	c.cfg.Trace(C.GoString((*C.char)(x)))
	return 0
}
