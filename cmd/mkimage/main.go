// Command mkimage assembles a raw bootable disk image from the host:
// a boot sector and the kernel ELF laid out at fixed sector offsets;
// it writes no user binaries. It has the same "patch/prepend/write bytes
// into an existing ELF" shape as the teacher's own APE packaging tool,
// run here against a disk image instead of an executable.
package main

import (
	"flag"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

const (
	sectorSize     = 512
	bootSectorLBA  = 0
	kernelLBA      = 1
	maxKernelLBAs  = 2048 // 1 MiB ceiling for the kernel image
	userImageLBA   = kernelLBA + maxKernelLBAs
)

func main() {
	bootPath := flag.String("boot", "", "boot sector binary (exactly 512 bytes)")
	kernelPath := flag.String("kernel", "", "kernel ELF binary")
	outPath := flag.String("out", "disk.img", "output disk image path")
	sizeMB := flag.Int("size", 16, "image size in MiB")
	flag.Parse()

	if *bootPath == "" || *kernelPath == "" {
		fmt.Fprintln(os.Stderr, "mkimage: -boot and -kernel are required")
		os.Exit(1)
	}

	if err := build(*bootPath, *kernelPath, *outPath, *sizeMB); err != nil {
		fmt.Fprintf(os.Stderr, "mkimage: %v\n", err)
		os.Exit(1)
	}
}

func build(bootPath, kernelPath, outPath string, sizeMB int) error {
	boot, err := os.ReadFile(bootPath)
	if err != nil {
		return fmt.Errorf("reading boot sector: %w", err)
	}
	if len(boot) != sectorSize {
		return fmt.Errorf("boot sector must be exactly %d bytes, got %d", sectorSize, len(boot))
	}

	kernel, err := os.ReadFile(kernelPath)
	if err != nil {
		return fmt.Errorf("reading kernel image: %w", err)
	}
	if len(kernel) > maxKernelLBAs*sectorSize {
		return fmt.Errorf("kernel image %d bytes exceeds the %d-byte budget reserved for it",
			len(kernel), maxKernelLBAs*sectorSize)
	}

	out, err := os.OpenFile(outPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating output image: %w", err)
	}
	defer out.Close()

	totalSize := int64(sizeMB) * 1024 * 1024
	if err := out.Truncate(totalSize); err != nil {
		return fmt.Errorf("sizing output image: %w", err)
	}

	if _, err := unix.Pwrite(int(out.Fd()), boot, bootSectorLBA*sectorSize); err != nil {
		return fmt.Errorf("writing boot sector: %w", err)
	}
	if _, err := unix.Pwrite(int(out.Fd()), kernel, kernelLBA*sectorSize); err != nil {
		return fmt.Errorf("writing kernel image: %w", err)
	}

	return verifyByMmap(out, boot)
}

// verifyByMmap re-reads the just-written boot sector through an mmap
// rather than another Pread, a cheap end-to-end check that the bytes
// landed on the page cache at the offset this tool intended.
func verifyByMmap(f *os.File, want []byte) error {
	mapped, err := unix.Mmap(int(f.Fd()), 0, sectorSize, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("mmap verify: %w", err)
	}
	defer unix.Munmap(mapped)

	for i, b := range want {
		if mapped[i] != b {
			return fmt.Errorf("mmap verify: boot sector byte %d mismatch: wrote 0x%x, read back 0x%x", i, b, mapped[i])
		}
	}
	return nil
}
