// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

//go:build linux

package udp

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

var (
	oobLength = syscall.CmsgSpace(4) // uint32
	// No SO_REUSEADDR or SO_REUSEPORT: the listener owns its port and
	// binding a port already in use must fail.
	udpSocketOptions = []socketOption{
		{
			// Number of packets dropped because the queue was full
			Name:   "SO_RXQ_OVFL",
			Level:  unix.SOL_SOCKET,
			Option: unix.SO_RXQ_OVFL,
		},
	}
)

// parseSocketControlMessage extracts the drop counter (SO_RXQ_OVFL)
// from a control message. The kernel only sends it once some packets
// have been dropped. The counter is cumulative for the socket.
func parseSocketControlMessage(b []byte) (uint32, error) {
	cmsgs, err := syscall.ParseSocketControlMessage(b)
	if err != nil {
		return 0, err
	}
	for _, cmsg := range cmsgs {
		if cmsg.Header.Level == unix.SOL_SOCKET && cmsg.Header.Type == unix.SO_RXQ_OVFL && len(cmsg.Data) >= 4 {
			// Data is aligned for the kernel, this is a native uint32.
			return *(*uint32)(unsafe.Pointer(&cmsg.Data[0])), nil
		}
	}
	return 0, nil
}
