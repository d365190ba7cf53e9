//go:build !windows

package securemem

import "golang.org/x/sys/unix"

// mlock pins the pages backing data into RAM and reports success.
// RLIMIT_MEMLOCK commonly makes this fail for unprivileged processes.
func mlock(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	return unix.Mlock(data) == nil
}

// munlock releases pages pinned by mlock.
func munlock(data []byte) {
	if len(data) == 0 {
		return
	}
	_ = unix.Munlock(data)
}
