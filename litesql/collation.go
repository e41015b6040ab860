package litesql

// #include "bridge.h"
import "C"

import (
	"fmt"
	"strings"
	"unsafe"
)

// CollationFunc implements a custom text ordering. It returns a negative,
// zero, or positive result as |a| sorts before, equal to, or after |b|.
// A CollationFunc must define a total order which is stable for the
// lifetime of any index built over it.
type CollationFunc func(a, b string) int

type collation struct {
	fn     CollationFunc
	handle uintptr
}

// AddCollation registers |fn| as the collation |name|, replacing any prior
// registration of the name. A refused registration panics, as the
// connection state is indeterminate.
func (c *Conn) AddCollation(name string, fn CollationFunc) {
	c.enter()
	defer c.exit()

	if fn == nil {
		panic("litesql: AddCollation with nil CollationFunc")
	}
	// Collation names are case-insensitive to the engine.
	var key = strings.ToLower(name)
	var reg = &collation{fn: fn}
	reg.handle = registerHandle(reg)

	var cName = C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	if rc := C.bridgeCreateCollation(c.db, cName, C.uintptr_t(reg.handle)); rc != C.SQLITE_OK {
		unregisterHandle(reg.handle)
		panic(fmt.Sprintf("litesql: registering collation %q: %v",
			name, c.lastError("")))
	}
	if prior, ok := c.collations[key]; ok {
		unregisterHandle(prior.handle)
	}
	c.collations[key] = reg
}

// RemoveCollation removes the collation |name|. Removing an unregistered
// collation is a no-op. Statements and indexes which still reference the
// name will fail until it is registered again.
func (c *Conn) RemoveCollation(name string) {
	c.enter()
	defer c.exit()

	var key = strings.ToLower(name)
	var prior, ok = c.collations[key]
	if !ok {
		return
	}
	var cName = C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	if rc := C.bridgeRemoveCollation(c.db, cName); rc != C.SQLITE_OK {
		panic(fmt.Sprintf("litesql: removing collation %q: %v",
			name, c.lastError("")))
	}
	unregisterHandle(prior.handle)
	delete(c.collations, key)
}
