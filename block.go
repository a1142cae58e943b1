// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"bufio"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

// block is one fixed-size backing region with its own bump cursor.
// Neighbours are implicit: the arena keeps blocks in chain order.
type block struct {
	region   []byte
	capacity int // usable bytes, clamped to cursor while full
	cursor   int // offset of the next free byte
	full     bool
}

func acquireBlock(backing Backing, capacity int) (*block, error) {
	region, err := backing.Map(capacity)
	if err != nil {
		return nil, errors.Wrapf(ErrOutOfMemory, "acquire %d byte block: %v", capacity, err)
	}
	if len(region) < capacity {
		if len(region) > 0 {
			if uerr := backing.Unmap(region); uerr != nil {
				return nil, errors.Wrapf(ErrOutOfMemory, "acquire %d byte block: got %d bytes, unmap: %v",
					capacity, len(region), uerr)
			}
		}
		return nil, errors.Wrapf(ErrOutOfMemory, "acquire %d byte block: got %d bytes", capacity, len(region))
	}
	return &block{
		region:   region[:capacity:capacity],
		capacity: capacity,
	}, nil
}

// releaseBlocks hands every region back to the backing in chain order.
// It does not stop at the first failure so no region is left mapped.
func releaseBlocks(backing Backing, blocks []*block) error {
	var first error
	for i, b := range blocks {
		if b == nil || b.region == nil {
			continue
		}
		if err := backing.Unmap(b.region); err != nil && first == nil {
			first = errors.Wrapf(err, "release block %d", i)
		}
		b.region = nil
		b.capacity, b.cursor = 0, 0
	}
	return first
}

// pushRaw reserves size bytes without any bounds check and returns the start
// offset of the reservation. Callers verify the block has room.
func (b *block) pushRaw(size int) int {
	off := b.cursor
	b.cursor += size
	return off
}

func (b *block) pushZeroedRaw(size int) int {
	off := b.pushRaw(size)
	clear(b.region[off:b.cursor])
	return off
}

// popRaw releases the last size bytes of the block and clears them.
// Requests larger than the cursor are split across blocks by the arena.
func (b *block) popRaw(size int) {
	if size > b.cursor {
		panic(fmt.Sprintf("arena: pop of %d bytes from block holding %d", size, b.cursor))
	}
	clear(b.region[b.cursor-size : b.cursor])
	b.cursor -= size
	b.reactivate()
}

// seal marks the block full and fixes its capacity at what is in use.
func (b *block) seal() {
	b.full = true
	b.capacity = b.cursor
}

// reactivate undoes seal so the block can take pushes again.
func (b *block) reactivate() {
	b.full = false
	b.capacity = len(b.region)
}

func (b *block) fits(size int) bool {
	return !b.full && b.cursor+size <= b.capacity
}

func (b *block) span(index, off, size, reserved int) Span {
	return Span{
		Block:  index,
		Offset: off,
		Bytes:  b.region[off : off+size : off+reserved],
	}
}

// dump writes a memory map of the block: '.' for zero bytes, printable
// ASCII as is, '?' for everything else and |PTR| at the cursor.
func (b *block) dump(w io.Writer, index int, current bool) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "block %d: cursor %d | capacity %d | mapped %d | used %s of %s",
		index, b.cursor, b.capacity, len(b.region),
		humanize.IBytes(uint64(b.cursor)), humanize.IBytes(uint64(len(b.region))))
	if b.full {
		bw.WriteString(" | full")
	}
	if current {
		bw.WriteString(" | current")
	}
	bw.WriteString("\n[")
	for i, c := range b.region {
		if i == b.cursor {
			bw.WriteString("|PTR|")
		}
		switch {
		case c == 0:
			bw.WriteByte('.')
		case c >= 32 && c <= 126:
			bw.WriteByte(c)
		default:
			bw.WriteByte('?')
		}
	}
	if b.cursor == len(b.region) {
		bw.WriteString("|PTR|")
	}
	bw.WriteString("]\n")
	return bw.Flush()
}
