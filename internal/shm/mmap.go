// Package shm implements a resizable POSIX shared-memory region backed by a
// memfd, the primitive every zero-copy transfer in this daemon builds on:
// the IPC layer maps client-built image payloads through it, and the bump
// pool maps the buffers it hands to the compositor through it.
package shm

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Mmap owns a single memfd-backed shared memory region and the slice
// currently mapping it. It is not safe for concurrent use; callers that
// share a region across goroutines must synchronize externally (the daemon
// never does, per its single-threaded event loop).
type Mmap struct {
	fd   int
	data []byte
	size int // the fd's truncated length; stays valid across Unmap/EnsureMapped
}

// Create allocates a fresh anonymous shared-memory region of exactly size
// bytes and maps it read/write.
func Create(size int) (*Mmap, error) {
	if size <= 0 {
		return nil, fmt.Errorf("shm: invalid size %d", size)
	}
	fd, err := unix.MemfdCreate("mural-shm", unix.MFD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("shm: memfd_create: %w", err)
	}
	m := &Mmap{fd: fd}
	if err := m.truncateAndMap(size); err != nil {
		unix.Close(fd)
		return nil, err
	}
	return m, nil
}

// FromFd adopts an already-open, already-sized file descriptor (typically
// one received over the IPC socket via SCM_RIGHTS) and maps it for the
// given length. The Mmap takes ownership of fd.
func FromFd(fd int, length int) (*Mmap, error) {
	if length <= 0 {
		return nil, fmt.Errorf("shm: invalid length %d", length)
	}
	data, err := unix.Mmap(fd, 0, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("shm: mmap: %w", err)
	}
	return &Mmap{fd: fd, data: data, size: length}, nil
}

func (m *Mmap) truncateAndMap(size int) error {
	if err := unix.Ftruncate(m.fd, int64(size)); err != nil {
		return fmt.Errorf("shm: ftruncate: %w", err)
	}
	data, err := unix.Mmap(m.fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("shm: mmap: %w", err)
	}
	m.data = data
	m.size = size
	return nil
}

// Len returns the currently mapped length in bytes.
func (m *Mmap) Len() int {
	return len(m.data)
}

// Fd returns the underlying file descriptor. Ownership stays with Mmap;
// callers that need to pass it across a socket must dup it first
// (unix.Dup), since Close/Drop will close this fd.
func (m *Mmap) Fd() int {
	return m.fd
}

// Slice returns the mapped region for reading.
func (m *Mmap) Slice() []byte {
	return m.data
}

// SliceMut returns the mapped region for writing.
func (m *Mmap) SliceMut() []byte {
	return m.data
}

// Remap grows (never shrinks) the region to newSize, preserving existing
// contents. Growth-only matches spec §3's Mmap lifecycle ("remappable
// (growth only or explicit unmap)"). A prior Unmap leaves m.data nil with
// m.size still holding the fd's truncated length; Remap re-establishes the
// mapping via EnsureMapped before comparing against newSize, the same way
// the original's grow() unconditionally calls ensure_mapped() at its start
// so a pool idled down to zero buffers can still grow back up.
func (m *Mmap) Remap(newSize int) error {
	if err := m.EnsureMapped(); err != nil {
		return err
	}
	if newSize <= m.size {
		return nil
	}
	if err := unix.Ftruncate(m.fd, int64(newSize)); err != nil {
		return fmt.Errorf("shm: ftruncate on remap: %w", err)
	}
	newData, err := unix.Mremap(m.data, newSize, unix.MREMAP_MAYMOVE)
	if err != nil {
		// Some kernels/filesystems don't support mremap on memfd-backed
		// mappings from every origin; fall back to unmap+remap.
		if unmapErr := unix.Munmap(m.data); unmapErr != nil {
			return fmt.Errorf("shm: mremap failed (%v) and munmap fallback failed: %w", err, unmapErr)
		}
		data, mmapErr := unix.Mmap(m.fd, 0, newSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
		if mmapErr != nil {
			return fmt.Errorf("shm: mremap failed (%v) and remap fallback failed: %w", err, mmapErr)
		}
		m.data = data
		m.size = newSize
		return nil
	}
	m.data = newData
	m.size = newSize
	return nil
}

// Unmap releases the memory mapping without closing the backing fd. It is
// safe to call Remap again afterwards to re-map it, matching spec §5's
// lazy-unmap resource discipline ("mmaps are re-mapped automatically on
// next growth"). m.size is left untouched so EnsureMapped knows how large
// to re-map once the region is needed again.
func (m *Mmap) Unmap() error {
	if m.data == nil {
		return nil
	}
	if err := unix.Munmap(m.data); err != nil {
		return fmt.Errorf("shm: munmap: %w", err)
	}
	m.data = nil
	return nil
}

// EnsureMapped re-establishes the mapping at its last truncated size if a
// prior Unmap released it; a no-op otherwise. Callers that only ever grow
// through Remap get this for free — it exists as its own method so Remap
// can call it unconditionally before checking whether growth is needed.
func (m *Mmap) EnsureMapped() error {
	if m.data != nil {
		return nil
	}
	data, err := unix.Mmap(m.fd, 0, m.size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("shm: remap after unmap: %w", err)
	}
	m.data = data
	return nil
}

// Close unmaps the region (if still mapped) and closes the backing fd.
func (m *Mmap) Close() error {
	var err error
	if m.data != nil {
		err = unix.Munmap(m.data)
		m.data = nil
	}
	if cerr := unix.Close(m.fd); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// Dup returns a new file descriptor referencing the same shared memory
// object, suitable for handing to a peer via SCM_RIGHTS without losing this
// Mmap's own ownership of m.fd.
func (m *Mmap) Dup() (int, error) {
	fd, err := unix.FcntlInt(uintptr(m.fd), unix.F_DUPFD_CLOEXEC, 0)
	if err != nil {
		return -1, fmt.Errorf("shm: dup: %w", err)
	}
	return int(fd), nil
}

// File wraps the fd in an *os.File for callers that want to use the
// standard library's I/O helpers. The returned File shares fd ownership
// with m; closing it will close fd out from under m, so it exists only for
// short-lived read/write convenience (e.g. seeking to determine length).
func (m *Mmap) File(name string) *os.File {
	return os.NewFile(uintptr(m.fd), name)
}
