// SPDX-License-Identifier: Apache-2.0

package arena

import (
	"github.com/pkg/errors"
)

var (
	// ErrOutOfMemory is returned when the backing could not supply a block.
	// It is never retried.
	ErrOutOfMemory = errors.New("arena: out of memory")

	// ErrRequestTooLarge is returned when a single aligned request exceeds the
	// capacity of a fresh block.
	ErrRequestTooLarge = errors.New("arena: request exceeds block capacity")

	// ErrInvalidSize is returned for negative push sizes.
	ErrInvalidSize = errors.New("arena: invalid size")

	// ErrDestroyed is returned by the concurrent wrapper once Destruct was called.
	ErrDestroyed = errors.New("arena: destroyed")

	// ErrInvalidConfig is returned by NewChainedArena for unusable options.
	ErrInvalidConfig = errors.New("arena: invalid configuration")
)
