//go:build linux || darwin

package utils

import "syscall"

func tuneSocket(fd uintptr) {
	_ = syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_RCVBUF, 4*DefaultBufferSize)
}
