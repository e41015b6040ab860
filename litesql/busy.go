package litesql

// #include "bridge.h"
import "C"

import "time"

// BusyPolicy arbitrates SQLITE_BUSY contention on behalf of a Conn.
type BusyPolicy interface {
	apply(c *Conn) error
}

type busyFail struct{}

// BusyFail returns a BusyPolicy which surfaces SQLITE_BUSY immediately.
func BusyFail() BusyPolicy { return busyFail{} }

func (busyFail) apply(c *Conn) error {
	if rc := C.bridgeClearBusyHandler(c.db); rc != C.SQLITE_OK {
		return c.lastError("")
	}
	return nil
}

type busyWait struct{ d time.Duration }

// BusyWait returns a BusyPolicy which retries a contended operation for up
// to |d| before surfacing SQLITE_BUSY.
func BusyWait(d time.Duration) BusyPolicy { return busyWait{d: d} }

func (b busyWait) apply(c *Conn) error {
	if rc := C.sqlite3_busy_timeout(c.db, C.int(b.d/time.Millisecond)); rc != C.SQLITE_OK {
		return c.lastError("")
	}
	return nil
}

type busyRetry struct{ fn func(count int) bool }

// BusyRetry returns a BusyPolicy driven by |fn|, which is invoked with the
// number of prior retries of the contended operation and reports whether to
// retry again. Returning false surfaces SQLITE_BUSY. The callback may sleep
// to implement a backoff.
func BusyRetry(fn func(count int) bool) BusyPolicy { return busyRetry{fn: fn} }

func (b busyRetry) apply(c *Conn) error {
	c.busyHandle = registerHandle(b.fn)
	if rc := C.bridgeSetBusyHandler(c.db, C.uintptr_t(c.busyHandle)); rc != C.SQLITE_OK {
		unregisterHandle(c.busyHandle)
		c.busyHandle = 0
		return c.lastError("")
	}
	return nil
}
