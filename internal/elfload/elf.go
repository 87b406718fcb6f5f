// Package elfload parses and loads a 32-bit little-endian ELF image
// into a fresh address space (spec.md §4.9/§6). Header parsing is
// hand-rolled with encoding/binary, the same way the teacher's own
// cmd/link/internal/ld/ape.go reads ELF headers to re-embed them in an
// APE polyglot binary; debug/elf appears only on the test side, to
// build fixtures to load, never on this production parsing path.
package elfload

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/octane-os/octane32/internal/mm"
)

const (
	magic0, magic1, magic2, magic3 = 0x7F, 'E', 'L', 'F'

	etExec  = 2
	emI386  = 3
	ptLoad  = 1

	ehdrSize = 52
	phdrSize = 32
)

// Header is the subset of Elf32_Ehdr this loader consults.
type Header struct {
	Type      uint16
	Machine   uint16
	Entry     uint32
	Phoff     uint32
	Phentsize uint16
	Phnum     uint16
}

// Segment is one Elf32_Phdr's PT_LOAD fields, kept past load time
// (spec.md §9 supplemented feature) so a future read-only-text pass
// has the original permission bits to work from even though this
// loader currently maps everything user+writable per spec.md §4.9.
type Segment struct {
	Offset, Vaddr, Filesz, Memsz uint32
	Flags                        uint32 // raw ELF p_flags (PF_X=1, PF_W=2, PF_R=4)
}

func parseHeader(r io.ReaderAt) (Header, []Segment, error) {
	var raw [ehdrSize]byte
	if _, err := r.ReadAt(raw[:], 0); err != nil {
		return Header{}, nil, fmt.Errorf("elfload: read header: %w", err)
	}
	if raw[0] != magic0 || raw[1] != magic1 || raw[2] != magic2 || raw[3] != magic3 {
		return Header{}, nil, fmt.Errorf("elfload: bad magic")
	}

	le := binary.LittleEndian
	h := Header{
		Type:      le.Uint16(raw[16:18]),
		Machine:   le.Uint16(raw[18:20]),
		Entry:     le.Uint32(raw[24:28]),
		Phoff:     le.Uint32(raw[28:32]),
		Phentsize: le.Uint16(raw[42:44]),
		Phnum:     le.Uint16(raw[44:46]),
	}
	if h.Type != etExec {
		return Header{}, nil, fmt.Errorf("elfload: e_type=%d, want ET_EXEC", h.Type)
	}
	if h.Machine != emI386 {
		return Header{}, nil, fmt.Errorf("elfload: e_machine=%d, want EM_386", h.Machine)
	}
	if h.Entry == 0 {
		return Header{}, nil, fmt.Errorf("elfload: e_entry is zero")
	}
	if h.Phentsize == 0 || h.Phnum == 0 {
		return Header{}, nil, fmt.Errorf("elfload: no program headers")
	}

	segs, err := parseProgramHeaders(r, h)
	if err != nil {
		return Header{}, nil, err
	}
	if !hasLoadSegment(segs) {
		return Header{}, nil, fmt.Errorf("elfload: no PT_LOAD segment")
	}
	return h, segs, nil
}

func parseProgramHeaders(r io.ReaderAt, h Header) ([]Segment, error) {
	le := binary.LittleEndian
	segs := make([]Segment, 0, h.Phnum)
	for i := 0; i < int(h.Phnum); i++ {
		var raw [phdrSize]byte
		off := int64(h.Phoff) + int64(i)*int64(h.Phentsize)
		if _, err := r.ReadAt(raw[:], off); err != nil {
			return nil, fmt.Errorf("elfload: read phdr %d: %w", i, err)
		}
		typ := le.Uint32(raw[0:4])
		if typ != ptLoad {
			continue
		}
		segs = append(segs, Segment{
			Offset: le.Uint32(raw[4:8]),
			Vaddr:  le.Uint32(raw[8:12]),
			Filesz: le.Uint32(raw[16:20]),
			Memsz:  le.Uint32(raw[20:24]),
			Flags:  le.Uint32(raw[24:28]),
		})
	}
	return segs, nil
}

func hasLoadSegment(segs []Segment) bool { return len(segs) > 0 }

// validateAlignment checks spec.md §4.9's "p_vaddr must be
// page-aligned" requirement, split out as pure logic so it is
// testable without a real address space or allocator.
func validateAlignment(segs []Segment) error {
	for _, s := range segs {
		if s.Vaddr%mm.PageSize != 0 {
			return fmt.Errorf("elfload: segment vaddr 0x%x is not page-aligned", s.Vaddr)
		}
	}
	return nil
}

// heapBound returns the highest mapped byte across every segment,
// rounded up to a page boundary, which becomes heap_start per
// spec.md §4.9.
func heapBound(segs []Segment) uint32 {
	var max uint32
	for _, s := range segs {
		end := s.Vaddr + s.Memsz
		if end > max {
			max = end
		}
	}
	return (max + mm.PageSize - 1) &^ (mm.PageSize - 1)
}
