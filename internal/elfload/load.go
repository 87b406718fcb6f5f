package elfload

import (
	"fmt"
	"io"
	"unsafe"

	"github.com/octane-os/octane32/internal/mm"
)

// Image is the result of a successful Load: the entry point and the
// heap bound the loader computed, everything execve needs to finish
// programming the new task's context (spec.md §4.9).
type Image struct {
	Entry     uint32
	HeapStart uint32
	Segments  []Segment
}

// Load parses r as an ELF32 executable and maps every PT_LOAD segment
// into as via mgr, reading p_filesz bytes per page and leaving
// [p_filesz, p_memsz) zero (AllocUserPage always returns a
// zero-filled page, so there is nothing left for the crt to do for
// the tail on this kernel).
//
// Every PT_LOAD segment is mapped user+writable regardless of its ELF
// permission flags (spec.md §4.9: "coarsely translated... for
// simplicity"); Segment.Flags is kept on Image for a future
// read-only-text pass (spec.md §9).
func Load(r io.ReaderAt, mgr *mm.Manager, as *mm.AddressSpace) (*Image, error) {
	h, segs, err := parseHeader(r)
	if err != nil {
		return nil, err
	}
	if err := validateAlignment(segs); err != nil {
		return nil, err
	}

	for _, seg := range segs {
		if err := loadSegment(r, mgr, as, seg); err != nil {
			return nil, err
		}
	}

	return &Image{
		Entry:     h.Entry,
		HeapStart: heapBound(segs),
		Segments:  segs,
	}, nil
}

// loadSegment maps ceil(p_memsz/4KiB) pages and fills the first
// p_filesz bytes from the file, chunked by page boundary (spec.md
// §4.9); each page comes back zero-filled from AllocUserPage, which
// covers the [p_filesz, p_memsz) bss tail with no extra work.
func loadSegment(r io.ReaderAt, mgr *mm.Manager, as *mm.AddressSpace, seg Segment) error {
	pages := (seg.Memsz + mm.PageSize - 1) / mm.PageSize
	for p := uint32(0); p < pages; p++ {
		vaddr := seg.Vaddr + p*mm.PageSize
		phys, err := mgr.AllocUserPage(as, vaddr, mm.PTEWritable)
		if err != nil {
			return fmt.Errorf("elfload: mapping 0x%x: %w", vaddr, err)
		}

		inSegOff := p * mm.PageSize
		if inSegOff >= seg.Filesz {
			continue // entirely within the bss tail
		}
		n := uint32(mm.PageSize)
		if rem := seg.Filesz - inSegOff; n > rem {
			n = rem
		}
		dst := physBytes(phys)[:n]
		if _, err := r.ReadAt(dst, int64(seg.Offset+inSegOff)); err != nil {
			return fmt.Errorf("elfload: reading segment data at 0x%x: %w", vaddr, err)
		}
	}
	return nil
}

// physBytes views a physical page as a byte slice. Valid only for
// pages the kernel identity-maps, true of everything AllocUserPage
// hands back (spec.md §4.2).
func physBytes(phys uint32) []byte {
	return (*[mm.PageSize]byte)(unsafe.Pointer(uintptr(phys)))[:]
}
