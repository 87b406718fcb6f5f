package syscall

import "github.com/octane-os/octane32/internal/klog"

// ttyMajor is the device major number internal/device registers the
// TTY driver under; a fixed constant instead of a registry lookup
// because the kernel's device namespace is fixed at build time
// (spec.md's Non-goals exclude a real filesystem, so there is no
// dynamic /dev to walk).
const ttyMajor = 1

// devices maps the fixed path namespace sys_open accepts to a
// major/minor pair.
var devices = map[string][2]int{
	"/dev/tty0": {ttyMajor, 0},
	"/dev/tty1": {ttyMajor, 1},
}

func lookupDeviceName(name string) (major, minor int, ok bool) {
	d, ok := devices[name]
	if !ok {
		return 0, 0, false
	}
	return d[0], d[1], true
}

// printmsg backs sys_printmsg: a single-argument %d-style kernel
// console print (spec.md §6), routed through the same logger the rest
// of the kernel uses rather than writing the TTY directly, so user
// diagnostics interleave sanely with kernel log lines.
func printmsg(format string, arg uint32) {
	klog.Infof("[user] "+format, arg)
}
