// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package helpers

import (
	"net"
	"net/netip"
	"reflect"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// Validate is a validator instance to be used everywhere.
var Validate *validator.Validate

// isListen validates a <host>:<port> combination used as a listening
// address. The host may be empty.
func isListen(fl validator.FieldLevel) bool {
	host, port, err := net.SplitHostPort(fl.Field().String())
	if err != nil {
		return false
	}
	if portNum, err := strconv.ParseUint(port, 10, 16); err != nil || portNum > 65535 {
		return false
	}
	if host != "" {
		return Validate.Var(host, "hostname_rfc1123|ip") == nil
	}
	return true
}

// netipValidation turns netip values into strings for validation.
// Invalid values are turned into nil to make "required" work.
func netipValidation(fl reflect.Value) any {
	switch value := fl.Interface().(type) {
	case netip.Addr:
		if value.IsValid() {
			return value.String()
		}
	case netip.Prefix:
		if value.IsValid() {
			return value.String()
		}
	}
	return nil
}

func init() {
	Validate = validator.New()
	Validate.RegisterCustomTypeFunc(netipValidation, netip.Addr{}, netip.Prefix{})
	Validate.RegisterValidation("listen", isListen)
}
