// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package udp

import (
	"fmt"
	"net"
	"syscall"

	"golang.org/x/sys/unix"

	"netflowd/common/reporter"
)

// socketOption is a boolean socket option to enable on the listening
// socket.
type socketOption struct {
	Name      string
	Level     int
	Option    int
	Mandatory bool // error when not supported
}

// listenConfig returns a net.ListenConfig enabling the provided
// socket options. Failures on optional ones are only logged.
func listenConfig(r *reporter.Reporter, options []socketOption) *net.ListenConfig {
	return &net.ListenConfig{
		Control: func(_, address string, c syscall.RawConn) error {
			var err error
			cerr := c.Control(func(fd uintptr) {
				for _, opt := range options {
					if serr := unix.SetsockoptInt(int(fd), opt.Level, opt.Option, 1); serr != nil {
						if opt.Mandatory {
							err = fmt.Errorf("cannot set option %s on %s: %w", opt.Name, address, serr)
							return
						}
						r.Warn().Err(serr).Str("listen", address).
							Msgf("cannot set option %s on socket", opt.Name)
					}
				}
			})
			if cerr != nil {
				return cerr
			}
			return err
		},
	}
}
