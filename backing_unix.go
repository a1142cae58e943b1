// SPDX-License-Identifier: Apache-2.0

//go:build unix

package arena

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// MmapBacking maps block regions as private anonymous memory straight from
// the operating system, bypassing the Go heap. Regions are zeroed by the
// kernel and returned to it on Unmap.
//
// Memory obtained this way is invisible to the garbage collector: values
// stored in it must not hold the only reference to Go heap objects.
type MmapBacking struct{}

// Map satisfies the Backing interface.
func (MmapBacking) Map(size int) ([]byte, error) {
	region, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, errors.Wrapf(err, "mmap %d bytes", size)
	}
	return region, nil
}

// Unmap satisfies the Backing interface.
func (MmapBacking) Unmap(region []byte) error {
	if err := unix.Munmap(region); err != nil {
		return errors.Wrapf(err, "munmap %d bytes", len(region))
	}
	return nil
}

// DefaultBacking returns the backing used when no WithBacking option is given.
func DefaultBacking() Backing {
	return MmapBacking{}
}
