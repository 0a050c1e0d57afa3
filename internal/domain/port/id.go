package port

import "github.com/google/uuid"

// IDAllocator hands out identifiers for new records. Keeping allocation
// behind an interface keeps the core free of shared mutable counters and
// lets tests use a sequential fake.
type IDAllocator interface {
	NewID() uuid.UUID
}
