// SPDX-License-Identifier: Apache-2.0

//go:build unix

package arena

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMmapBacking(t *testing.T) {
	var backing MmapBacking

	region, err := backing.Map(4096)
	require.NoError(t, err)
	require.Len(t, region, 4096)
	require.Equal(t, make([]byte, 4096), region)

	region[0], region[4095] = 'a', 'z'
	require.NoError(t, backing.Unmap(region))
}

func TestMmapBackingInvalidSize(t *testing.T) {
	_, err := MmapBacking{}.Map(0)
	require.Error(t, err)
}

func TestChainedArenaOnMmap(t *testing.T) {
	a, err := NewChainedArena(WithBacking(MmapBacking{}), WithBlockCapacity(4096))
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		s, err := a.PushZeroed(1000)
		require.NoError(t, err)
		copy(s.Bytes, "mmap backed")
	}
	require.Equal(t, 3, a.Blocks())

	a.Pop(5000)
	require.Equal(t, 10*1008-5008, a.Size())
	require.NoError(t, a.Destruct())
}
