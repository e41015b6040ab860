package litesql

// #include "bridge.h"
import "C"

import (
	"fmt"
	"strings"
	"unsafe"

	"go.litesql.dev/core/metrics"
)

// Named supplies arguments bound by placeholder name. Keys may be given
// with or without the ':', '@' or '$' prefix.
type Named map[string]interface{}

// Result describes the outcome of an Execute batch.
type Result struct {
	// Changes is the number of rows inserted, updated or deleted across
	// the batch.
	Changes int64
	// LastInsertRowID is the rowid of the batch's most recent INSERT,
	// or zero if the batch inserted nothing.
	LastInsertRowID int64
}

// Execute runs |sql|, which may hold multiple ';'-separated statements,
// binding |args| and discarding any result rows.
//
// Arguments are positional by default: each statement consumes as many
// values as it has placeholders, in order, and Execute fails with
// SQLITE_MISUSE if the batch over- or under-consumes the values given.
// With no arguments at all, placeholders stay unbound and read as NULL.
// Alternatively a single Named argument binds every statement's
// placeholders by name; names absent from the map bind NULL.
func (c *Conn) Execute(sql string, args ...interface{}) (Result, error) {
	c.enter()
	defer c.exit()
	return c.execute(sql, args)
}

func (c *Conn) execute(sql string, args []interface{}) (Result, error) {
	named, positional, err := splitArgs(args)
	if err != nil {
		return Result{}, err
	}

	var res Result
	var start = int64(C.sqlite3_total_changes(c.db))
	var remaining, argIdx = sql, 0

	for strings.TrimSpace(remaining) != "" {
		stmt, tail, perr := c.prepare(remaining)
		if perr != nil {
			perr.SQL = sql
			return res, perr
		}
		if stmt == nil {
			// Only whitespace or comments were consumed.
			if len(tail) == len(remaining) {
				break
			}
			remaining = tail
			continue
		}

		// With no arguments at all, placeholders stay unbound and read as
		// NULL; consumption accounting applies only to supplied values.
		var bindErr *Error
		if n := int(C.sqlite3_bind_parameter_count(stmt)); named != nil {
			bindErr = bindNamed(c, stmt, named)
		} else if n > 0 && len(positional) > 0 {
			if argIdx+n > len(positional) {
				C.sqlite3_finalize(stmt)
				return res, &Error{Code: ErrMisuse, SQL: sql,
					Message: fmt.Sprintf("statement requires %d arguments but only %d remain",
						n, len(positional)-argIdx)}
			}
			bindErr = bindPositional(c, stmt, positional[argIdx:argIdx+n])
			argIdx += n
		}
		if bindErr != nil {
			C.sqlite3_finalize(stmt)
			bindErr.SQL = sql
			return res, bindErr
		}

		// last_insert_rowid is sticky across statements and batches. Zero
		// it before stepping so a non-zero value afterward unambiguously
		// marks an INSERT by this statement (rowids are never zero), and
		// restore the prior value when the statement inserted nothing.
		var priorRowID = C.sqlite3_last_insert_rowid(c.db)
		C.sqlite3_set_last_insert_rowid(c.db, 0)
		var stepErr = c.stepAll(stmt, sql)
		var rowID = int64(C.sqlite3_last_insert_rowid(c.db))
		if rowID == 0 {
			C.sqlite3_set_last_insert_rowid(c.db, priorRowID)
		}
		C.sqlite3_finalize(stmt)
		metrics.StatementsExecutedTotal.Inc()

		// The statement boundary is the transaction checkpoint: pending
		// observer state is consumed here, and a commit veto supersedes
		// the engine's own constraint error for the denied COMMIT.
		if err := c.statementDidExecute(stepErr); err != nil {
			return res, err
		}
		if rowID != 0 {
			res.LastInsertRowID = rowID
		}
		remaining = tail
	}

	if named == nil && argIdx != len(positional) {
		return res, &Error{Code: ErrMisuse, SQL: sql,
			Message: fmt.Sprintf("%d of %d arguments were not consumed",
				len(positional)-argIdx, len(positional))}
	}
	res.Changes = int64(C.sqlite3_total_changes(c.db)) - start
	return res, nil
}

// splitArgs converts Execute arguments into either a named or a positional
// binding set. A single Named argument selects named binding; otherwise
// every argument is converted positionally.
func splitArgs(args []interface{}) (map[string]Value, []Value, error) {
	if len(args) == 1 {
		if m, ok := args[0].(Named); ok {
			var named = make(map[string]Value, len(m))
			for k, v := range m {
				val, err := ValueOf(v)
				if err != nil {
					return nil, nil, err
				}
				named[strings.TrimLeft(k, ":@$")] = val
			}
			return named, nil, nil
		}
	}
	var positional = make([]Value, len(args))
	for i, a := range args {
		if _, ok := a.(Named); ok {
			return nil, nil, &Error{Code: ErrMisuse,
				Message: "Named must be the sole argument"}
		}
		val, err := ValueOf(a)
		if err != nil {
			return nil, nil, err
		}
		positional[i] = val
	}
	return nil, positional, nil
}

// prepare compiles the first statement of |sql|. It returns a nil statement
// when |sql| holds only whitespace or comments. |tail| is the unconsumed
// remainder, derived from the engine's reported parse offset.
func (c *Conn) prepare(sql string) (*C.sqlite3_stmt, string, *Error) {
	var cSQL = C.CString(sql)
	defer C.free(unsafe.Pointer(cSQL))

	var stmt *C.sqlite3_stmt
	var cTail *C.char
	if rc := C.sqlite3_prepare_v2(c.db, cSQL, C.int(len(sql)+1), &stmt, &cTail); rc != C.SQLITE_OK {
		return nil, "", c.lastError(sql)
	}

	var tail string
	if cTail != nil {
		var off = int(uintptr(unsafe.Pointer(cTail)) - uintptr(unsafe.Pointer(cSQL)))
		if off >= 0 && off <= len(sql) {
			tail = sql[off:]
		}
	}
	return stmt, tail, nil
}

// stepAll drives |stmt| to completion, discarding rows.
func (c *Conn) stepAll(stmt *C.sqlite3_stmt, sql string) *Error {
	for {
		switch rc := C.sqlite3_step(stmt); rc {
		case C.SQLITE_ROW:
			// Rows of an Execute batch are discarded.
		case C.SQLITE_DONE:
			return nil
		default:
			return c.lastError(sql)
		}
	}
}

func bindPositional(c *Conn, stmt *C.sqlite3_stmt, vals []Value) *Error {
	for i, v := range vals {
		if err := bindValue(c, stmt, i+1, v); err != nil {
			return err
		}
	}
	return nil
}

func bindNamed(c *Conn, stmt *C.sqlite3_stmt, named map[string]Value) *Error {
	var n = int(C.sqlite3_bind_parameter_count(stmt))
	for i := 1; i <= n; i++ {
		var cName = C.sqlite3_bind_parameter_name(stmt, C.int(i))
		if cName == nil {
			continue // Unnamed placeholder binds NULL under named binding.
		}
		// The reported name includes its ':', '@' or '$' prefix.
		var name = strings.TrimLeft(C.GoString(cName), ":@$")
		v, ok := named[name]
		if !ok {
			continue // Absent names bind NULL.
		}
		if err := bindValue(c, stmt, i, v); err != nil {
			return err
		}
	}
	return nil
}

func bindValue(c *Conn, stmt *C.sqlite3_stmt, idx int, v Value) *Error {
	var rc C.int
	switch v.kind {
	case KindNull:
		rc = C.sqlite3_bind_null(stmt, C.int(idx))
	case KindInteger:
		rc = C.sqlite3_bind_int64(stmt, C.int(idx), C.sqlite3_int64(v.i))
	case KindDouble:
		rc = C.sqlite3_bind_double(stmt, C.int(idx), C.double(v.f))
	case KindText:
		var p *C.char
		if len(v.s) != 0 {
			p = (*C.char)(unsafe.Pointer(unsafe.StringData(v.s)))
		}
		rc = C.bridgeBindText(stmt, C.int(idx), p, C.int(len(v.s)))
	case KindBlob:
		var p unsafe.Pointer
		if len(v.b) != 0 {
			p = unsafe.Pointer(&v.b[0])
		}
		rc = C.bridgeBindBlob(stmt, C.int(idx), p, C.int(len(v.b)))
	}
	if rc != C.SQLITE_OK {
		return c.lastError("")
	}
	return nil
}

// columnValue copies column |i| of the statement's current row.
func columnValue(stmt *C.sqlite3_stmt, i int) Value {
	switch C.sqlite3_column_type(stmt, C.int(i)) {
	case C.SQLITE_INTEGER:
		return Integer(int64(C.sqlite3_column_int64(stmt, C.int(i))))
	case C.SQLITE_FLOAT:
		return Double(float64(C.sqlite3_column_double(stmt, C.int(i))))
	case C.SQLITE_TEXT:
		var p = unsafe.Pointer(C.sqlite3_column_text(stmt, C.int(i)))
		var n = int(C.sqlite3_column_bytes(stmt, C.int(i)))
		return Text(C.GoStringN((*C.char)(p), C.int(n)))
	case C.SQLITE_BLOB:
		var p = C.sqlite3_column_blob(stmt, C.int(i))
		var n = int(C.sqlite3_column_bytes(stmt, C.int(i)))
		if n == 0 {
			return Blob(nil)
		}
		return Blob(C.GoBytes(p, C.int(n)))
	default:
		return Null()
	}
}
