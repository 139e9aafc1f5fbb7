// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

//go:build !release

package httpserver

import (
	"testing"

	"netflowd/common/daemon"
	"netflowd/common/helpers"
	"netflowd/common/reporter"
)

// NewMock creates a new HTTP component listening on a random free
// port. It does not listen on the Unix socket.
func NewMock(t *testing.T, r *reporter.Reporter) *Component {
	t.Helper()
	config := DefaultConfiguration()
	config.Listen = "127.0.0.1:0"
	c, err := New(r, config, Dependencies{Daemon: daemon.NewMock(t)})
	if err != nil {
		t.Fatalf("New() error:\n%+v", err)
	}
	c.noUnixSocket = true
	helpers.StartStop(t, c)
	return c
}
