// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"fmt"
	"io"
	"math"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

const (
	// DefaultBlockCapacity is the size of every block when WithBlockCapacity
	// is not given.
	DefaultBlockCapacity = 64 * 1024 // 64KB

	// DefaultAlignment is the boundary spans start on when WithAlignment is
	// not given.
	DefaultAlignment = 16
)

// ChainedArena is a bump allocator over a chain of fixed-capacity blocks.
// Pushes advance the cursor of the current block and move on to the next
// block once it runs out of room. Pop rewinds in LIFO order and can retreat
// across block boundaries, making earlier blocks the allocation target again.
//
// ChainedArena is not safe for concurrent use; wrap it with
// NewConcurrentArena when it must be shared.
type ChainedArena struct {
	blocks    []*block // chain order, blocks[0] is the genesis block
	current   int      // index of the block pushes go to
	used      int
	peak      int
	destroyed bool

	blockCapacity int
	alignment     int
	backing       Backing
}

// ChainedArenaOption represents a configuration option for a chained arena.
type ChainedArenaOption func(*ChainedArena)

// WithBlockCapacity sets the size of every block acquired by the arena.
// It also bounds the largest single request.
func WithBlockCapacity(size int) ChainedArenaOption {
	return func(a *ChainedArena) {
		a.blockCapacity = size
	}
}

// WithAlignment sets the boundary every span starts on. It must be a power of two.
func WithAlignment(alignment int) ChainedArenaOption {
	return func(a *ChainedArena) {
		a.alignment = alignment
	}
}

// WithBacking sets where block memory comes from.
func WithBacking(backing Backing) ChainedArenaOption {
	return func(a *ChainedArena) {
		a.backing = backing
	}
}

// NewChainedArena creates an arena and acquires its genesis block.
// If no options are provided, it uses DefaultBlockCapacity, DefaultAlignment
// and DefaultBacking.
func NewChainedArena(opts ...ChainedArenaOption) (*ChainedArena, error) {
	a := &ChainedArena{
		blockCapacity: DefaultBlockCapacity,
		alignment:     DefaultAlignment,
		backing:       DefaultBacking(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if err := a.validate(); err != nil {
		return nil, err
	}

	genesis, err := acquireBlock(a.backing, a.blockCapacity)
	if err != nil {
		return nil, errors.WithMessage(err, "construct arena")
	}
	a.blocks = []*block{genesis}
	return a, nil
}

func (a *ChainedArena) validate() error {
	switch {
	case a.backing == nil:
		return errors.Wrap(ErrInvalidConfig, "nil backing")
	case a.alignment <= 0 || a.alignment&(a.alignment-1) != 0:
		return errors.Wrapf(ErrInvalidConfig, "alignment %d is not a power of two", a.alignment)
	case a.blockCapacity <= 0:
		return errors.Wrapf(ErrInvalidConfig, "block capacity %d", a.blockCapacity)
	case a.blockCapacity > math.MaxInt-a.alignment:
		return errors.Wrapf(ErrInvalidConfig, "block capacity %d too large", a.blockCapacity)
	case a.blockCapacity < a.alignment:
		return errors.Wrapf(ErrInvalidConfig, "block capacity %d below alignment %d", a.blockCapacity, a.alignment)
	}
	return nil
}

// Push satisfies the Arena interface.
func (a *ChainedArena) Push(size int) (Span, error) {
	return a.push(size, false)
}

// PushZeroed satisfies the Arena interface.
func (a *ChainedArena) PushZeroed(size int) (Span, error) {
	return a.push(size, true)
}

func (a *ChainedArena) push(size int, zeroed bool) (Span, error) {
	a.mustBeAlive()
	if size < 0 {
		return Span{}, errors.Wrapf(ErrInvalidSize, "push %d bytes", size)
	}
	if size > a.blockCapacity {
		return Span{}, errors.Wrapf(ErrRequestTooLarge, "push %d bytes into %d byte blocks", size, a.blockCapacity)
	}
	aligned := alignUp(size, a.alignment)
	if aligned > a.blockCapacity {
		return Span{}, errors.Wrapf(ErrRequestTooLarge, "push %d bytes (%d aligned) into %d byte blocks",
			size, aligned, a.blockCapacity)
	}

	if !a.blocks[a.current].fits(aligned) {
		if err := a.advance(); err != nil {
			return Span{}, err
		}
	}

	cur := a.blocks[a.current]
	var off int
	if zeroed {
		off = cur.pushZeroedRaw(aligned)
	} else {
		off = cur.pushRaw(aligned)
	}
	a.used += aligned
	if a.used > a.peak {
		a.peak = a.used
	}
	return cur.span(a.current, off, size, aligned), nil
}

// advance seals the current block and moves on to its successor. A successor
// left empty by an earlier Pop is reused before a new block is acquired.
func (a *ChainedArena) advance() error {
	next := a.current + 1
	if next == len(a.blocks) {
		b, err := acquireBlock(a.backing, a.blockCapacity)
		if err != nil {
			return errors.WithMessagef(err, "grow arena past %d blocks", len(a.blocks))
		}
		a.blocks = append(a.blocks, b)
	}
	a.blocks[a.current].seal()
	a.current = next
	return nil
}

// Pop satisfies the Arena interface.
func (a *ChainedArena) Pop(size int) {
	a.mustBeAlive()
	if size <= 0 {
		return
	}
	// a.used is aligned, so rounding the clamped size cannot exceed it
	remaining := alignUp(min(size, a.used), a.alignment)
	for i := a.current; remaining > 0 && i >= 0; i-- {
		b := a.blocks[i]
		take := min(remaining, b.cursor)
		if take > 0 {
			b.popRaw(take)
			a.used -= take
			remaining -= take
		}
	}
	a.retreat()
}

// retreat moves current back to the last block holding data, or to the
// genesis block when the arena is empty, and makes it accept pushes again.
func (a *ChainedArena) retreat() {
	for a.current > 0 && a.blocks[a.current].cursor == 0 {
		a.blocks[a.current].reactivate()
		a.current--
	}
	a.blocks[a.current].reactivate()
}

// Reset satisfies the Arena interface.
func (a *ChainedArena) Reset() {
	a.Pop(a.Size())
}

// Mark records the arena's current size so it can be rewound to later.
type Mark struct {
	size int
}

// Mark returns a Mark for the current top of the arena.
func (a *ChainedArena) Mark() Mark {
	a.mustBeAlive()
	return Mark{size: a.used}
}

// Rewind pops everything pushed since m was taken. Rewinding to a mark
// above the current size does nothing.
func (a *ChainedArena) Rewind(m Mark) {
	if n := a.Size() - m.size; n > 0 {
		a.Pop(n)
	}
}

// Size satisfies the Arena interface. It walks the chain from the genesis block.
func (a *ChainedArena) Size() int {
	a.mustBeAlive()
	var total int
	for _, b := range a.blocks {
		total += b.cursor
	}
	return total
}

// Cap satisfies the Arena interface.
func (a *ChainedArena) Cap() int {
	var total int
	for _, b := range a.blocks {
		total += len(b.region)
	}
	return total
}

// Peak satisfies the Arena interface.
func (a *ChainedArena) Peak() int {
	return a.peak
}

// Alignment satisfies the Arena interface.
func (a *ChainedArena) Alignment() int {
	return a.alignment
}

// BlockCapacity returns the size of each block, which is also the largest
// aligned request the arena accepts.
func (a *ChainedArena) BlockCapacity() int {
	return a.blockCapacity
}

// Blocks returns the number of blocks in the chain.
func (a *ChainedArena) Blocks() int {
	return len(a.blocks)
}

// Destruct satisfies the Arena interface. Blocks are released in chain order.
// Calling Destruct on a destroyed arena does nothing.
func (a *ChainedArena) Destruct() error {
	if a.destroyed {
		return nil
	}
	a.destroyed = true
	err := releaseBlocks(a.backing, a.blocks)
	a.blocks = nil
	a.current, a.used = 0, 0
	return err
}

// Dump writes a memory map of every block to w. The format is meant for
// debugging and may change.
func (a *ChainedArena) Dump(w io.Writer) error {
	a.mustBeAlive()
	if _, err := fmt.Fprintln(w, a.String()); err != nil {
		return err
	}
	for i, b := range a.blocks {
		if err := b.dump(w, i, i == a.current); err != nil {
			return err
		}
	}
	return nil
}

// String summarizes the arena's usage.
func (a *ChainedArena) String() string {
	if a.destroyed {
		return "arena: destroyed"
	}
	return fmt.Sprintf("arena: %d blocks, current %d, size %s, cap %s, peak %s",
		len(a.blocks), a.current,
		humanize.IBytes(uint64(a.Size())), humanize.IBytes(uint64(a.Cap())), humanize.IBytes(uint64(a.peak)))
}

func (a *ChainedArena) mustBeAlive() {
	if a.destroyed {
		panic("arena: use after Destruct")
	}
}
