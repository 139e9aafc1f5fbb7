// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package helpers_test

import (
	"net/netip"
	"testing"

	"netflowd/common/helpers"
)

func TestListenValidator(t *testing.T) {
	s := struct {
		Listen string `validate:"listen"`
	}{}
	cases := []struct {
		Pos    helpers.Pos
		Listen string
		Err    bool
	}{
		{helpers.Mark(), "127.0.0.1:8080", false},
		{helpers.Mark(), "localhost:8080", false},
		{helpers.Mark(), "0.0.0.0:8080", false},
		{helpers.Mark(), "[::1]:8080", false},
		{helpers.Mark(), ":8080", false},
		{helpers.Mark(), "127.0.0.1:0", false},
		{helpers.Mark(), "localhost", true},
		{helpers.Mark(), "127.0.0.1", true},
		{helpers.Mark(), "127.0.0.1:what", true},
		{helpers.Mark(), "127.0.0.1:100000", true},
	}
	for _, tc := range cases {
		s.Listen = tc.Listen
		err := helpers.Validate.Struct(s)
		if err == nil && tc.Err {
			t.Errorf("%sValidate.Struct(%q) expected an error", tc.Pos, tc.Listen)
		} else if err != nil && !tc.Err {
			t.Errorf("%sValidate.Struct(%q) error:\n%+v", tc.Pos, tc.Listen, err)
		}
	}
}

func TestNetIPValidator(t *testing.T) {
	type config struct {
		Addr   netip.Addr   `validate:"required"`
		Prefix netip.Prefix `validate:"required,cidrv4"`
	}
	cases := []struct {
		Pos    helpers.Pos
		Config config
		Err    bool
	}{
		{helpers.Mark(), config{
			Addr:   netip.MustParseAddr("192.0.2.1"),
			Prefix: netip.MustParsePrefix("192.0.2.0/24"),
		}, false},
		{helpers.Mark(), config{
			Prefix: netip.MustParsePrefix("192.0.2.0/24"),
		}, true},
		{helpers.Mark(), config{
			Addr: netip.MustParseAddr("192.0.2.1"),
		}, true},
		{helpers.Mark(), config{
			Addr:   netip.MustParseAddr("2001:db8::1"),
			Prefix: netip.MustParsePrefix("2001:db8::/64"),
		}, true},
	}
	for _, tc := range cases {
		err := helpers.Validate.Struct(tc.Config)
		if err == nil && tc.Err {
			t.Errorf("%sValidate.Struct(%+v) expected an error", tc.Pos, tc.Config)
		} else if err != nil && !tc.Err {
			t.Errorf("%sValidate.Struct(%+v) error:\n%+v", tc.Pos, tc.Config, err)
		}
	}
}
