// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"sync"
)

type concurrentArena struct {
	mtx sync.Mutex
	a   Arena
}

// NewConcurrentArena returns an arena that is safe to be accessed concurrently
// from multiple goroutines. Every call is serialized on a single mutex, so
// Pop still reclaims whatever was pushed last regardless of which goroutine
// pushed it.
//
// After Destruct, pushes fail with ErrDestroyed and the other methods behave
// like an empty arena.
func NewConcurrentArena(a Arena) Arena {
	return &concurrentArena{a: a}
}

// Push satisfies the Arena interface.
func (a *concurrentArena) Push(size int) (Span, error) {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	if a.a == nil {
		return Span{}, ErrDestroyed
	}
	return a.a.Push(size)
}

// PushZeroed satisfies the Arena interface.
func (a *concurrentArena) PushZeroed(size int) (Span, error) {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	if a.a == nil {
		return Span{}, ErrDestroyed
	}
	return a.a.PushZeroed(size)
}

// Pop satisfies the Arena interface.
func (a *concurrentArena) Pop(size int) {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	if a.a == nil {
		return
	}
	a.a.Pop(size)
}

// Size satisfies the Arena interface.
func (a *concurrentArena) Size() int {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	if a.a == nil {
		return 0
	}
	return a.a.Size()
}

// Cap satisfies the Arena interface.
func (a *concurrentArena) Cap() int {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	if a.a == nil {
		return 0
	}
	return a.a.Cap()
}

// Peak satisfies the Arena interface.
func (a *concurrentArena) Peak() int {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	if a.a == nil {
		return 0
	}
	return a.a.Peak()
}

// Alignment satisfies the Arena interface.
func (a *concurrentArena) Alignment() int {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	if a.a == nil {
		return 1
	}
	return a.a.Alignment()
}

// Reset satisfies the Arena interface.
func (a *concurrentArena) Reset() {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	if a.a == nil {
		return
	}
	a.a.Reset()
}

// Destruct satisfies the Arena interface.
func (a *concurrentArena) Destruct() error {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	if a.a == nil {
		return nil
	}
	err := a.a.Destruct()
	a.a = nil
	return err
}
