package litesql

// #cgo LDFLAGS: -lsqlite3
// #include "bridge.h"
import "C"

import "sync"

// liveHandles indexes Go-side registrations (connections, functions,
// collations, busy handlers) by the opaque handles passed through native
// callbacks. Callbacks map a handle back to its registration here, rather
// than reinterpreting a stored Go pointer.
var liveHandles = struct {
	m    map[uintptr]interface{}
	next uintptr
	mu   sync.Mutex
}{m: make(map[uintptr]interface{}), next: 1}

func registerHandle(v interface{}) uintptr {
	liveHandles.mu.Lock()
	defer liveHandles.mu.Unlock()

	var h = liveHandles.next
	liveHandles.next++
	liveHandles.m[h] = v
	return h
}

func lookupHandle(h uintptr) interface{} {
	liveHandles.mu.Lock()
	defer liveHandles.mu.Unlock()
	return liveHandles.m[h]
}

func unregisterHandle(h uintptr) {
	liveHandles.mu.Lock()
	defer liveHandles.mu.Unlock()
	delete(liveHandles.m, h)
}
