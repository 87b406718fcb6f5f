package elfload

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octane-os/octane32/internal/mm"
)

// buildFixture hand-assembles a minimal ELF32 i386 executable with one
// PT_LOAD segment, the same manual-byte-layout approach
// internal/elfload.Load itself uses, so the fixture and the parser
// agree on layout independently of any third-party ELF writer
// (there is none in the standard library; debug/elf only reads).
func buildFixture(t *testing.T, vaddr uint32, data []byte, memsz uint32) []byte {
	t.Helper()

	const (
		ehdrSize = 52
		phdrSize = 32
	)
	phoff := uint32(ehdrSize)
	dataOff := phoff + phdrSize

	buf := make([]byte, dataOff+uint32(len(data)))
	buf[0], buf[1], buf[2], buf[3] = 0x7F, 'E', 'L', 'F'
	buf[4] = 1 // ELFCLASS32
	buf[5] = 1 // ELFDATA2LSB
	buf[6] = 1 // EV_CURRENT

	le := binary.LittleEndian
	le.PutUint16(buf[16:18], uint16(elf.ET_EXEC))
	le.PutUint16(buf[18:20], uint16(elf.EM_386))
	le.PutUint32(buf[20:24], 1)
	le.PutUint32(buf[24:28], vaddr) // e_entry: jump straight to segment start
	le.PutUint32(buf[28:32], phoff) // e_phoff
	le.PutUint16(buf[42:44], phdrSize)
	le.PutUint16(buf[44:46], 1) // e_phnum

	phdr := buf[phoff : phoff+phdrSize]
	le.PutUint32(phdr[0:4], 1) // p_type = PT_LOAD
	le.PutUint32(phdr[4:8], dataOff)
	le.PutUint32(phdr[8:12], vaddr)
	le.PutUint32(phdr[16:20], uint32(len(data)))
	le.PutUint32(phdr[20:24], memsz)
	le.PutUint32(phdr[24:28], 5) // PF_R|PF_X

	copy(buf[dataOff:], data)
	return buf
}

func TestBuildFixtureParsesWithDebugELF(t *testing.T) {
	raw := buildFixture(t, 0x80000000, []byte{0xC3, 0xC3, 0xC3}, mm.PageSize)

	f, err := elf.NewFile(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, elf.ET_EXEC, f.Type)
	assert.Equal(t, elf.EM_386, f.Machine)
	require.Len(t, f.Progs, 1)
	assert.Equal(t, elf.PT_LOAD, f.Progs[0].Type)
}

func TestParseHeaderAcceptsValidFixture(t *testing.T) {
	raw := buildFixture(t, 0x80000000, []byte{1, 2, 3, 4}, mm.PageSize)

	h, segs, err := parseHeader(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, uint32(0x80000000), h.Entry)
	require.Len(t, segs, 1)
	assert.Equal(t, uint32(0x80000000), segs[0].Vaddr)
	assert.Equal(t, uint32(4), segs[0].Filesz)
	assert.Equal(t, uint32(mm.PageSize), segs[0].Memsz)
}

func TestParseHeaderRejectsBadMagic(t *testing.T) {
	raw := buildFixture(t, 0x80000000, []byte{1}, mm.PageSize)
	raw[1] = 'X'

	_, _, err := parseHeader(bytes.NewReader(raw))
	assert.Error(t, err)
}

func TestParseHeaderRejectsWrongMachine(t *testing.T) {
	raw := buildFixture(t, 0x80000000, []byte{1}, mm.PageSize)
	binary.LittleEndian.PutUint16(raw[18:20], uint16(elf.EM_X86_64))

	_, _, err := parseHeader(bytes.NewReader(raw))
	assert.Error(t, err)
}

func TestParseHeaderRejectsZeroEntry(t *testing.T) {
	raw := buildFixture(t, 0x80000000, []byte{1}, mm.PageSize)
	binary.LittleEndian.PutUint32(raw[24:28], 0)

	_, _, err := parseHeader(bytes.NewReader(raw))
	assert.Error(t, err)
}

func TestValidateAlignmentRejectsUnalignedVaddr(t *testing.T) {
	err := validateAlignment([]Segment{{Vaddr: 0x80000001, Memsz: 4}})
	assert.Error(t, err)
}

func TestValidateAlignmentAcceptsPageAligned(t *testing.T) {
	err := validateAlignment([]Segment{{Vaddr: 0x80001000, Memsz: 4}})
	assert.NoError(t, err)
}

func TestHeapBoundRoundsUpToPageAndTakesHighestSegment(t *testing.T) {
	segs := []Segment{
		{Vaddr: 0x80000000, Memsz: 4},
		{Vaddr: 0x80001000, Memsz: mm.PageSize + 1},
	}
	got := heapBound(segs)
	assert.Equal(t, uint32(0x80001000+2*mm.PageSize), got)
}
