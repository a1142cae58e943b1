// SPDX-License-Identifier: Apache-2.0

//go:build !unix

package arena

// DefaultBacking returns the backing used when no WithBacking option is given.
func DefaultBacking() Backing {
	return HeapBacking{}
}
