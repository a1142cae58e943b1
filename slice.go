// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"unsafe"
)

const growThreshold = 256

// Allocate allocates zeroed memory for a value of type T using the provided Arena.
// If the arena is nil or cannot hold a T, it allocates using Go's built-in new function.
// T must not contain Go pointers when the arena's blocks live outside the Go heap.
func Allocate[T any](a Arena) *T {
	if a != nil {
		var x T
		if ptr := pushTyped(a, unsafe.Sizeof(x), unsafe.Alignof(x)); ptr != nil {
			return (*T)(ptr)
		}
	}
	return new(T)
}

// AllocateSlice creates a slice of type T with a given length and capacity,
// using the provided Arena for memory allocation.
// If the arena is non-nil, it returns a zeroed slice with memory allocated from the arena.
// Otherwise, or when the arena cannot serve the request, it returns a slice
// using Go's built-in make function.
func AllocateSlice[T any](a Arena, len, cap int) []T {
	if a != nil && cap > 0 {
		var x T
		bufSize := unsafe.Sizeof(x) * uintptr(cap)
		if ptr := (*T)(pushTyped(a, bufSize, unsafe.Alignof(x))); ptr != nil {
			s := unsafe.Slice(ptr, cap)
			return s[:len]
		}
	}
	return make([]T, len, cap)
}

// SliceAppend appends elements to a slice of type T using a provided Arena
// for memory allocation if needed. The old backing array is not popped, it
// stays reserved until the arena is rewound past it.
func SliceAppend[T any](a Arena, s []T, data ...T) []T {
	if a == nil {
		return append(s, data...)
	}
	s = growSlice(a, s, len(data))
	s = append(s, data...)
	return s
}

func growSlice[T any](a Arena, s []T, dataLen int) []T {
	newLen := len(s) + dataLen
	newCap := cap(s)

	if newCap > 0 {
		for newLen > newCap {
			if newCap < growThreshold {
				newCap *= 2
			} else {
				newCap += newCap / 4
			}
		}
	} else {
		newCap = dataLen
	}
	if newCap == cap(s) {
		return s
	}
	s2 := AllocateSlice[T](a, len(s), newCap)
	copy(s2, s)
	return s2
}

// pushTyped reserves zeroed memory for size bytes aligned to alignment and
// returns nil when the arena cannot provide it. Blocks whose base address is
// not aligned (a custom Backing) make it fall back after reserving.
func pushTyped(a Arena, size, alignment uintptr) unsafe.Pointer {
	if size == 0 || alignment > uintptr(a.Alignment()) {
		return nil
	}
	span, err := a.PushZeroed(int(size))
	if err != nil {
		return nil
	}
	ptr := unsafe.Pointer(unsafe.SliceData(span.Bytes))
	if uintptr(ptr)%alignment != 0 {
		// The reservation is left in place rather than popped: through a
		// concurrent arena another push may already sit on top of it.
		// It is reclaimed with everything else on Pop, Rewind or Reset.
		return nil
	}
	return ptr
}
