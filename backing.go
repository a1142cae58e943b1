// SPDX-License-Identifier: Apache-2.0

package arena

// Backing supplies the memory regions that blocks are carved from.
// Map must return a zeroed region of exactly size bytes that is owned by the
// caller until it is handed back to Unmap. Every mapped region is unmapped
// exactly once.
type Backing interface {
	Map(size int) ([]byte, error)
	Unmap(region []byte) error
}

// HeapBacking allocates block regions on the Go heap. The garbage collector
// reclaims them once the arena drops its references.
type HeapBacking struct{}

// Map satisfies the Backing interface.
func (HeapBacking) Map(size int) ([]byte, error) {
	return make([]byte, size), nil
}

// Unmap satisfies the Backing interface.
func (HeapBacking) Unmap([]byte) error {
	return nil
}
