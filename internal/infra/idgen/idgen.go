// Package idgen provides the production ID allocator.
package idgen

import "github.com/google/uuid"

// UUIDAllocator allocates random UUIDs. It holds no state, so allocation is
// safe from any goroutine.
type UUIDAllocator struct{}

func (UUIDAllocator) NewID() uuid.UUID {
	return uuid.New()
}
