// Package syscall is the kernel's system-call dispatch table: the
// call-gate and int 0x80 entry paths both land here with a call id and
// up to five arguments (spec.md §4.6). Handlers return a signed int;
// negative values are failures (spec.md §6).
package syscall

// Errno values are small negative sentinels, the kernel's entire error
// taxonomy at the syscall boundary (spec.md §7): there is no separate
// error type because every handler's return value IS the error
// channel.
const (
	EPERM  int32 = -1
	ENOENT int32 = -2
	EBADF  int32 = -9
	ENOMEM int32 = -12
	EINVAL int32 = -22
	EMFILE int32 = -24
	ENOSYS int32 = -38
)
