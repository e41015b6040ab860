package litesql

// #include "bridge.h"
import "C"

import (
	"fmt"
	"strings"
	"unsafe"
)

// ScalarFunc implements a custom SQL scalar function. It receives the
// invocation's arguments and returns a single Value, or an error which
// fails the calling statement.
type ScalarFunc func(args []Value) (Value, error)

// ArityAny registers a function accepting any number of arguments.
const ArityAny = -1

type funcKey struct {
	name  string
	arity int
}

type scalarFunction struct {
	fn     ScalarFunc
	handle uintptr
}

// AddFunction registers |fn| as the SQL function |name| with exactly
// |arity| arguments (or any number, for ArityAny). The engine enforces
// arity at statement compile time. A deterministic function must return
// identical results for identical arguments within a statement; marking it
// |pure| lets the engine factor and reuse calls.
//
// Registering over an existing (name, arity) pair replaces it. A refused
// registration panics: the connection state is indeterminate and the
// program must not continue issuing SQL which assumed the function.
func (c *Conn) AddFunction(name string, arity int, pure bool, fn ScalarFunc) {
	c.enter()
	defer c.exit()

	if fn == nil {
		panic("litesql: AddFunction with nil ScalarFunc")
	}
	// Function names are case-insensitive to the engine.
	var key = funcKey{name: strings.ToLower(name), arity: arity}
	var reg = &scalarFunction{fn: fn}
	reg.handle = registerHandle(reg)

	var cName = C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	var det C.int
	if pure {
		det = 1
	}
	if rc := C.bridgeCreateFunction(c.db, cName, C.int(arity), det, C.uintptr_t(reg.handle)); rc != C.SQLITE_OK {
		unregisterHandle(reg.handle)
		panic(fmt.Sprintf("litesql: registering function %q/%d: %v",
			name, arity, c.lastError("")))
	}
	if prior, ok := c.funcs[key]; ok {
		unregisterHandle(prior.handle)
	}
	c.funcs[key] = reg
}

// RemoveFunction removes the SQL function registered as (|name|, |arity|).
// Removing an unregistered function is a no-op.
func (c *Conn) RemoveFunction(name string, arity int) {
	c.enter()
	defer c.exit()

	var key = funcKey{name: strings.ToLower(name), arity: arity}
	var prior, ok = c.funcs[key]
	if !ok {
		return
	}
	var cName = C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	if rc := C.bridgeRemoveFunction(c.db, cName, C.int(arity)); rc != C.SQLITE_OK {
		panic(fmt.Sprintf("litesql: removing function %q/%d: %v",
			name, arity, c.lastError("")))
	}
	unregisterHandle(prior.handle)
	delete(c.funcs, key)
}

// valueOfNative copies a native engine value into a Value.
func valueOfNative(v *C.sqlite3_value) Value {
	switch C.sqlite3_value_type(v) {
	case C.SQLITE_INTEGER:
		return Integer(int64(C.sqlite3_value_int64(v)))
	case C.SQLITE_FLOAT:
		return Double(float64(C.sqlite3_value_double(v)))
	case C.SQLITE_TEXT:
		var p = unsafe.Pointer(C.sqlite3_value_text(v))
		var n = int(C.sqlite3_value_bytes(v))
		return Text(C.GoStringN((*C.char)(p), C.int(n)))
	case C.SQLITE_BLOB:
		var p = C.sqlite3_value_blob(v)
		var n = int(C.sqlite3_value_bytes(v))
		if n == 0 {
			return Blob(nil)
		}
		return Blob(C.GoBytes(p, C.int(n)))
	default:
		return Null()
	}
}

// setResult writes |v| as the function invocation's result.
func setResult(ctx *C.sqlite3_context, v Value) {
	switch v.kind {
	case KindNull:
		C.sqlite3_result_null(ctx)
	case KindInteger:
		C.sqlite3_result_int64(ctx, C.sqlite3_int64(v.i))
	case KindDouble:
		C.sqlite3_result_double(ctx, C.double(v.f))
	case KindText:
		var p *C.char
		if len(v.s) != 0 {
			p = (*C.char)(unsafe.Pointer(unsafe.StringData(v.s)))
		}
		C.bridgeResultText(ctx, p, C.int(len(v.s)))
	case KindBlob:
		var p unsafe.Pointer
		if len(v.b) != 0 {
			p = unsafe.Pointer(&v.b[0])
		}
		C.bridgeResultBlob(ctx, p, C.int(len(v.b)))
	}
}

// setResultError fails the function invocation with |err|, preserving a
// structured code when the error carries one.
func setResultError(ctx *C.sqlite3_context, err error) {
	var code C.int
	if e, ok := err.(*Error); ok {
		code = C.int(e.Code)
	}
	var cMsg = C.CString(err.Error())
	defer C.free(unsafe.Pointer(cMsg))
	C.bridgeResultError(ctx, cMsg, code)
}
