package mm

import (
	"fmt"
	"unsafe"
)

// PTE is a 32-bit page-table/page-directory entry (spec.md §6):
// bit 0 present, bit 1 writable, bit 2 user, bit 7 page-size (4 MiB
// pages, loader use only), bits 12-31 the physical frame.
type PTE uint32

const (
	PTEPresent  PTE = 1 << 0
	PTEWritable PTE = 1 << 1
	PTEUser     PTE = 1 << 2
	PTEPageSize PTE = 1 << 7

	frameMask = 0xFFFFF000

	entriesPerTable = 1024
	// UserSpaceIndex is the top-level directory index where user
	// space begins (0x80000000 >> 22), per spec.md §3.
	UserSpaceIndex = 0x80000000 >> 22
)

func NewPTE(frame uint32, flags PTE) PTE {
	return PTE(frame&frameMask) | flags | PTEPresent
}

func (e PTE) Present() bool  { return e&PTEPresent != 0 }
func (e PTE) Writable() bool { return e&PTEWritable != 0 }
func (e PTE) User() bool     { return e&PTEUser != 0 }
func (e PTE) Frame() uint32  { return uint32(e) & frameMask }

// Table is either a page directory or a second-level page table: both
// share the same 1024-entry, 4-byte-entry hardware layout.
type Table [entriesPerTable]PTE

// physToTable reinterprets a physical address as a *Table. Valid only
// for addresses the kernel identity-maps (extended RAM, 1 MiB-128 MiB
// per spec.md §4.2), which is true of every page-table/directory page
// this allocator ever hands out.
func physToTable(phys uint32) *Table {
	return (*Table)(unsafe.Pointer(uintptr(phys)))
}

// MapEntry describes one [virtual, physical, permission] triple from
// the kernel's static map table (spec.md §4.2).
type MapEntry struct {
	Virtual, Physical, Length uint32
	Flags                     PTE
}

// AddressSpace owns one top-level page directory and the second-level
// tables it references. Dir is the physical address of the directory
// page (CR3 value for this space).
type AddressSpace struct {
	Dir uint32
}

// Manager ties the physical bitmap allocator to page-table
// construction and owns the kernel's one shared directory, which every
// process's directory mirrors in its kernel half (spec.md §4.2:
// "mirrored in every process's top-level page table so traps stay
// valid").
type Manager struct {
	Phys   *Bitmap
	Kernel AddressSpace
}

// NewManager wires a Manager to an already-sized physical bitmap.
func NewManager(phys *Bitmap) *Manager {
	return &Manager{Phys: phys}
}

// BuildKernelPageTable walks the static [virtual,physical,perm] map
// table once at kernel init, allocating second-level tables on demand
// and installing 4 KiB entries (spec.md §4.2).
func (m *Manager) BuildKernelPageTable(entries []MapEntry) error {
	dirPhys, err := m.Phys.AllocPages(1)
	if err != nil {
		return err
	}
	dir := physToTable(dirPhys)
	*dir = Table{}
	m.Kernel.Dir = dirPhys

	for _, e := range entries {
		if err := m.mapRange(dir, e.Virtual, e.Physical, e.Length, e.Flags); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) mapRange(dir *Table, vaddr, paddr, length uint32, flags PTE) error {
	for off := uint32(0); off < length; off += PageSize {
		if err := m.mapPage(dir, vaddr+off, paddr+off, flags); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) mapPage(dir *Table, vaddr, paddr uint32, flags PTE) error {
	dirIdx := vaddr >> 22
	tblIdx := (vaddr >> 12) & 0x3FF

	de := &dir[dirIdx]
	var tbl *Table
	if !de.Present() {
		tblPhys, err := m.Phys.AllocPages(1)
		if err != nil {
			return err
		}
		tbl = physToTable(tblPhys)
		*tbl = Table{}
		*de = NewPTE(tblPhys, PTEWritable|flagsUserBit(flags))
	} else {
		tbl = physToTable(de.Frame())
	}
	tbl[tblIdx] = NewPTE(paddr, flags)
	return nil
}

// flagsUserBit propagates the user bit from a leaf mapping up to its
// owning directory entry: a directory entry must be at least as
// permissive as any leaf beneath it for the user bit to take effect.
func flagsUserBit(flags PTE) PTE {
	return flags & PTEUser
}

// NewAddressSpace allocates a fresh top-level directory and copies the
// kernel half (entries [0, UserSpaceIndex)) from the kernel directory,
// per spec.md §4.2.
func (m *Manager) NewAddressSpace() (*AddressSpace, error) {
	dirPhys, err := m.Phys.AllocPages(1)
	if err != nil {
		return nil, err
	}
	dir := physToTable(dirPhys)
	*dir = Table{}

	kdir := physToTable(m.Kernel.Dir)
	for i := 0; i < UserSpaceIndex; i++ {
		dir[i] = kdir[i]
	}
	return &AddressSpace{Dir: dirPhys}, nil
}

// Destroy walks the user half only, freeing every present leaf page,
// each second-level table page, and finally the directory page
// (spec.md §4.2).
func (m *Manager) Destroy(as *AddressSpace) {
	dir := physToTable(as.Dir)
	for i := UserSpaceIndex; i < entriesPerTable; i++ {
		de := dir[i]
		if !de.Present() {
			continue
		}
		tbl := physToTable(de.Frame())
		for _, leaf := range tbl {
			if leaf.Present() {
				m.Phys.FreePages(leaf.Frame(), 1)
			}
		}
		m.Phys.FreePages(de.Frame(), 1)
		dir[i] = 0
	}
	m.Phys.FreePages(as.Dir, 1)
}

// MapUserPage installs a single present user-space mapping in as,
// allocating a second-level table on demand. Used directly by
// CopyAddressSpace, and through AllocUserPage by Sbrk and the ELF
// loader.
func (m *Manager) MapUserPage(as *AddressSpace, vaddr, paddr uint32, flags PTE) error {
	dir := physToTable(as.Dir)
	return m.mapPage(dir, vaddr, paddr, flags|PTEUser)
}

// AllocUserPage allocates one physical page and maps it into as at
// vaddr with the given flags, returning the physical address.
func (m *Manager) AllocUserPage(as *AddressSpace, vaddr uint32, flags PTE) (uint32, error) {
	paddr, err := m.Phys.AllocPages(1)
	if err != nil {
		return 0, err
	}
	if err := m.MapUserPage(as, vaddr, paddr, flags); err != nil {
		m.Phys.FreePages(paddr, 1)
		return 0, err
	}
	zero(paddr)
	return paddr, nil
}

func zero(phys uint32) {
	tbl := (*[PageSize]byte)(unsafe.Pointer(uintptr(phys)))
	for i := range tbl {
		tbl[i] = 0
	}
}

// Translate walks as's directory to find the physical address backing
// vaddr, or ok=false if unmapped. Used by CopyTo to resolve
// destination pages in a possibly-different address space.
func (m *Manager) Translate(as *AddressSpace, vaddr uint32) (phys uint32, ok bool) {
	dir := physToTable(as.Dir)
	de := dir[vaddr>>22]
	if !de.Present() {
		return 0, false
	}
	tbl := physToTable(de.Frame())
	pe := tbl[(vaddr>>12)&0x3FF]
	if !pe.Present() {
		return 0, false
	}
	return pe.Frame() | (vaddr & (PageSize - 1)), true
}

// CopyTo copies size bytes from fromKernelVaddr (a kernel-identity
// mapped address, directly dereferenceable) into toVaddr within
// as's address space, honouring page boundaries (spec.md §4.2).
func (m *Manager) CopyTo(as *AddressSpace, toVaddr uint32, fromKernelVaddr uintptr, size uint32) error {
	src := (*[1 << 30]byte)(unsafe.Pointer(fromKernelVaddr))[:size:size]
	copied := uint32(0)
	for copied < size {
		vaddr := toVaddr + copied
		phys, ok := m.Translate(as, vaddr&^(PageSize-1))
		if !ok {
			return fmt.Errorf("mm: CopyTo: unmapped destination page at 0x%x", vaddr)
		}
		pageOff := vaddr & (PageSize - 1)
		n := PageSize - pageOff
		if rem := size - copied; n > rem {
			n = rem
		}
		dst := (*[PageSize]byte)(unsafe.Pointer(uintptr(phys &^ (PageSize - 1))))
		copy(dst[pageOff:pageOff+n], src[copied:copied+n])
		copied += n
	}
	return nil
}
