package litesql

// #include "bridge.h"
import "C"

import (
	"fmt"

	"github.com/pkg/errors"
)

// Code is a SQLite result code. Extended codes retain their high bits;
// Primary strips them to the base code.
type Code int

// Primary result codes of the engine.
const (
	ErrError      Code = 1
	ErrInternal   Code = 2
	ErrPerm       Code = 3
	ErrAbort      Code = 4
	ErrBusy       Code = 5
	ErrLocked     Code = 6
	ErrNoMem      Code = 7
	ErrReadOnly   Code = 8
	ErrInterrupt  Code = 9
	ErrIOErr      Code = 10
	ErrCorrupt    Code = 11
	ErrNotFound   Code = 12
	ErrFull       Code = 13
	ErrCantOpen   Code = 14
	ErrProtocol   Code = 15
	ErrSchema     Code = 17
	ErrTooBig     Code = 18
	ErrConstraint Code = 19
	ErrMismatch   Code = 20
	ErrMisuse     Code = 21
	ErrAuth       Code = 23
	ErrRange      Code = 25
	ErrNotADB     Code = 26
)

// Primary returns the primary result code, stripping extended bits.
func (c Code) Primary() Code { return c & 0xff }

func (c Code) String() string {
	switch c.Primary() {
	case ErrError:
		return "SQLITE_ERROR"
	case ErrInternal:
		return "SQLITE_INTERNAL"
	case ErrPerm:
		return "SQLITE_PERM"
	case ErrAbort:
		return "SQLITE_ABORT"
	case ErrBusy:
		return "SQLITE_BUSY"
	case ErrLocked:
		return "SQLITE_LOCKED"
	case ErrNoMem:
		return "SQLITE_NOMEM"
	case ErrReadOnly:
		return "SQLITE_READONLY"
	case ErrInterrupt:
		return "SQLITE_INTERRUPT"
	case ErrIOErr:
		return "SQLITE_IOERR"
	case ErrCorrupt:
		return "SQLITE_CORRUPT"
	case ErrNotFound:
		return "SQLITE_NOTFOUND"
	case ErrFull:
		return "SQLITE_FULL"
	case ErrCantOpen:
		return "SQLITE_CANTOPEN"
	case ErrProtocol:
		return "SQLITE_PROTOCOL"
	case ErrSchema:
		return "SQLITE_SCHEMA"
	case ErrTooBig:
		return "SQLITE_TOOBIG"
	case ErrConstraint:
		return "SQLITE_CONSTRAINT"
	case ErrMismatch:
		return "SQLITE_MISMATCH"
	case ErrMisuse:
		return "SQLITE_MISUSE"
	case ErrAuth:
		return "SQLITE_AUTH"
	case ErrRange:
		return "SQLITE_RANGE"
	case ErrNotADB:
		return "SQLITE_NOTADB"
	default:
		return fmt.Sprintf("SQLITE(%d)", int(c))
	}
}

// Error is a structured engine error: the (possibly extended) result code,
// the engine message, and the SQL which produced it when known.
type Error struct {
	Code    Code
	Message string
	SQL     string
}

func (e *Error) Error() string {
	if e.SQL != "" {
		return fmt.Sprintf("%s: %s (while executing %q)", e.Code, e.Message, e.SQL)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// errCode builds an *Error from a bare result code, used where no
// connection-level message is available.
func errCode(rc C.int, msg, sql string) *Error {
	return &Error{Code: Code(rc), Message: msg, SQL: sql}
}

// lastError captures the connection's current extended result code and
// message, attributing them to |sql|.
func (c *Conn) lastError(sql string) *Error {
	return &Error{
		Code:    Code(C.sqlite3_extended_errcode(c.db)),
		Message: C.GoString(C.sqlite3_errmsg(c.db)),
		SQL:     sql,
	}
}

// canAutoRollback reports whether |err| is an engine condition for which
// SQLite may already have rolled back the active transaction, making an
// explicit ROLLBACK redundant (and its failure ignorable).
func canAutoRollback(err error) bool {
	if e, ok := errors.Cause(err).(*Error); ok {
		switch e.Code.Primary() {
		case ErrBusy, ErrIOErr, ErrFull, ErrNoMem:
			return true
		}
	}
	return false
}
