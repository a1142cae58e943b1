// SPDX-License-Identifier: Apache-2.0

package arena

// Arena is an interface that describes a stack-ordered region allocator.
type Arena interface {
	// Push reserves size bytes, rounded up to the arena's alignment, and
	// returns the span. The memory is not cleared.
	Push(size int) (Span, error)

	// PushZeroed behaves like Push but guarantees every byte of the span is zero.
	PushZeroed(size int) (Span, error)

	// Pop reclaims the most recently pushed size bytes, rounded up to the
	// arena's alignment, so Pop(n) exactly undoes Push(n). Size therefore
	// drops by the aligned amount: Pop(600) with 16 byte alignment reclaims
	// 608 bytes. Popping more than Size clamps to empty.
	// Reclaimed bytes are cleared.
	Pop(size int)

	// Size returns the number of bytes currently reserved.
	Size() int

	// Cap returns the total number of bytes mapped for the arena's blocks.
	Cap() int

	// Peak returns the highest value Size has reached.
	// It is not lowered by Pop or Reset.
	Peak() int

	// Alignment returns the byte boundary every span starts on.
	Alignment() int

	// Reset pops everything while keeping the blocks for reuse.
	// Any span previously returned becomes invalid.
	Reset()

	// Destruct returns every block to its backing. The arena must not be
	// used afterwards.
	Destruct() error
}

// Span is a reservation handed out by an Arena.
// Bytes has the requested length and a capacity equal to the aligned
// reservation. Spans never move; they stay valid until popped or until the
// arena is destroyed.
type Span struct {
	Block  int // index of the block in the chain, 0 is the genesis block
	Offset int // offset of the span within its block
	Bytes  []byte
}

// Len returns the requested length of the span.
func (s Span) Len() int {
	return len(s.Bytes)
}

// Reserved returns the number of bytes the arena set aside for the span.
func (s Span) Reserved() int {
	return cap(s.Bytes)
}

func alignUp(size, alignment int) int {
	return (size + alignment - 1) &^ (alignment - 1)
}
