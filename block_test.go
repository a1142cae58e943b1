// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// failingBacking maps successfully until budget regions have been handed out.
type failingBacking struct {
	budget   int
	mapped   int
	unmapped int
	short    bool
	unmapErr error
}

func (f *failingBacking) Map(size int) ([]byte, error) {
	if f.mapped >= f.budget {
		return nil, errors.New("no memory left")
	}
	f.mapped++
	if f.short {
		return make([]byte, size/2), nil
	}
	return make([]byte, size), nil
}

func (f *failingBacking) Unmap([]byte) error {
	f.unmapped++
	return f.unmapErr
}

func TestAcquireBlock(t *testing.T) {
	b, err := acquireBlock(HeapBacking{}, 128)
	require.NoError(t, err)
	require.Equal(t, 0, b.cursor)
	require.Equal(t, 128, b.capacity)
	require.Len(t, b.region, 128)
	require.False(t, b.full)
}

func TestAcquireBlockOutOfMemory(t *testing.T) {
	_, err := acquireBlock(&failingBacking{}, 128)
	require.ErrorIs(t, err, ErrOutOfMemory)
	require.Contains(t, err.Error(), "no memory left")

	short := &failingBacking{budget: 1, short: true}
	_, err = acquireBlock(short, 128)
	require.ErrorIs(t, err, ErrOutOfMemory)
	require.Equal(t, 1, short.unmapped)

	stuck := &failingBacking{budget: 1, short: true, unmapErr: errors.New("region busy")}
	_, err = acquireBlock(stuck, 128)
	require.ErrorIs(t, err, ErrOutOfMemory)
	require.Contains(t, err.Error(), "got 64 bytes")
	require.Contains(t, err.Error(), "region busy")
}

func TestReleaseBlocks(t *testing.T) {
	backing := &failingBacking{budget: 3}
	var blocks []*block
	for i := 0; i < 3; i++ {
		b, err := acquireBlock(backing, 64)
		require.NoError(t, err)
		blocks = append(blocks, b)
	}

	require.NoError(t, releaseBlocks(backing, blocks))
	require.Equal(t, 3, backing.unmapped)

	// already released regions are skipped
	require.NoError(t, releaseBlocks(backing, blocks))
	require.Equal(t, 3, backing.unmapped)
}

func TestBlockPushRaw(t *testing.T) {
	b, err := acquireBlock(HeapBacking{}, 64)
	require.NoError(t, err)

	require.Equal(t, 0, b.pushRaw(16))
	require.Equal(t, 16, b.pushRaw(32))
	require.Equal(t, 48, b.cursor)
}

func TestBlockPushZeroedRaw(t *testing.T) {
	b, err := acquireBlock(HeapBacking{}, 64)
	require.NoError(t, err)
	for i := range b.region {
		b.region[i] = 0xff
	}

	off := b.pushZeroedRaw(32)
	require.Equal(t, 0, off)
	require.Equal(t, make([]byte, 32), b.region[:32])
	require.Equal(t, byte(0xff), b.region[32])
}

func TestBlockPopRaw(t *testing.T) {
	b, err := acquireBlock(HeapBacking{}, 64)
	require.NoError(t, err)

	b.pushRaw(32)
	copy(b.region, "abcdefghijklmnopqrstuvwxyz012345")
	b.popRaw(16)
	require.Equal(t, 16, b.cursor)
	require.Equal(t, "abcdefghijklmnop", string(b.region[:16]))
	require.Equal(t, make([]byte, 16), b.region[16:32])

	require.Panics(t, func() { b.popRaw(17) })
}

func TestBlockSealAndReactivate(t *testing.T) {
	b, err := acquireBlock(HeapBacking{}, 64)
	require.NoError(t, err)

	b.pushRaw(48)
	b.seal()
	require.True(t, b.full)
	require.Equal(t, 48, b.capacity)
	require.False(t, b.fits(0))

	b.popRaw(16)
	require.False(t, b.full)
	require.Equal(t, 64, b.capacity)
	require.True(t, b.fits(32))
	require.False(t, b.fits(48))
}

func TestBlockDump(t *testing.T) {
	b, err := acquireBlock(HeapBacking{}, 8)
	require.NoError(t, err)

	b.pushRaw(4)
	copy(b.region, "hi\x01")

	var buf bytes.Buffer
	require.NoError(t, b.dump(&buf, 2, true))

	out := buf.String()
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "block 2: cursor 4 | capacity 8 | mapped 8")
	require.Contains(t, lines[0], "current")
	require.NotContains(t, lines[0], "full")
	require.Equal(t, "[hi?.|PTR|....]", lines[1])

	b.pushRaw(4)
	buf.Reset()
	require.NoError(t, b.dump(&buf, 0, false))
	require.True(t, strings.HasSuffix(buf.String(), "[hi?.....|PTR|]\n"))
}
