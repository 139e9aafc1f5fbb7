// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package udp

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/go-playground/validator/v10"

	"netflowd/common/helpers"
)

const (
	// AnyIPv4 binds to all IPv4 addresses.
	AnyIPv4 = "Any"
	// AnyIPv6 binds to all IPv6 addresses (and IPv4 ones when the
	// system allows dual-stack sockets).
	AnyIPv6 = "IPv6Any"
)

// Configuration describes the configuration of an UDP listener.
type Configuration struct {
	// ListenAddress is the address to bind to: "Any" (or empty) for
	// all IPv4 addresses, "IPv6Any" for all IPv6 addresses or a
	// specific IP address.
	ListenAddress string `validate:"listenaddress"`
	// UDPPort is the port to listen to.
	UDPPort int `validate:"min=1,max=65535"`
	// ReceiveBuffer is the value of the requested buffer size for
	// the listening socket. When 0, the value is left to the
	// default value set by the kernel (net.core.rmem_default). The
	// value cannot exceed the kernel max value (net.core.rmem_max).
	ReceiveBuffer uint
}

// DefaultConfiguration is the default configuration for an UDP listener.
func DefaultConfiguration() Configuration {
	return Configuration{
		ListenAddress: AnyIPv4,
		UDPPort:       2055,
	}
}

// bindAddress returns the network and the address to bind to.
func (c Configuration) bindAddress() (string, netip.Addr, error) {
	switch {
	case c.ListenAddress == "" || strings.EqualFold(c.ListenAddress, AnyIPv4):
		return "udp4", netip.IPv4Unspecified(), nil
	case strings.EqualFold(c.ListenAddress, AnyIPv6):
		return "udp", netip.IPv6Unspecified(), nil
	}
	addr, err := netip.ParseAddr(c.ListenAddress)
	if err != nil {
		return "", netip.Addr{}, fmt.Errorf("invalid listen address %q: %w", c.ListenAddress, err)
	}
	if addr.Is4() {
		return "udp4", addr, nil
	}
	return "udp", addr, nil
}

func isListenAddress(fl validator.FieldLevel) bool {
	_, _, err := Configuration{ListenAddress: fl.Field().String()}.bindAddress()
	return err == nil
}

func init() {
	helpers.Validate.RegisterValidation("listenaddress", isListenAddress)
	helpers.RegisterMapstructureUnmarshallerHook(
		helpers.RenameKeyUnmarshallerHook(Configuration{}, "LocalAddress", "ListenAddress"))
}
