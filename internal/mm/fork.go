package mm

import "unsafe"

func tableBytePtr(phys uint32) unsafe.Pointer {
	return unsafe.Pointer(uintptr(phys))
}

// CopyAddressSpace implements fork's address-space duplication
// (spec.md §4.2): create a fresh address space, then for every present
// user-space leaf mapping in src, allocate a new physical page, copy
// its 4 KiB of content, and install the same permissions at the same
// virtual address in the new directory. This is eager copy; there is
// no copy-on-write path (spec.md §9 open question: a faithful rewrite
// must not assume a later fault can be recovered).
func (m *Manager) CopyAddressSpace(src *AddressSpace) (*AddressSpace, error) {
	dst, err := m.NewAddressSpace()
	if err != nil {
		return nil, err
	}

	srcDir := physToTable(src.Dir)
	for dirIdx := UserSpaceIndex; dirIdx < entriesPerTable; dirIdx++ {
		de := srcDir[dirIdx]
		if !de.Present() {
			continue
		}
		srcTbl := physToTable(de.Frame())
		for tblIdx, leaf := range srcTbl {
			if !leaf.Present() {
				continue
			}
			vaddr := uint32(dirIdx)<<22 | uint32(tblIdx)<<12
			newPhys, err := m.Phys.AllocPages(1)
			if err != nil {
				m.Destroy(dst)
				return nil, err
			}
			copyPage(newPhys, leaf.Frame())
			flags := leaf &^ PTEPresent &^ frameMaskPTE()
			if err := m.MapUserPage(dst, vaddr, newPhys, flags); err != nil {
				m.Phys.FreePages(newPhys, 1)
				m.Destroy(dst)
				return nil, err
			}
		}
	}
	return dst, nil
}

func frameMaskPTE() PTE { return PTE(frameMask) }

func copyPage(dstPhys, srcPhys uint32) {
	dst := (*[PageSize]byte)(tableBytePtr(dstPhys))
	src := (*[PageSize]byte)(tableBytePtr(srcPhys))
	*dst = *src
}
