// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

// Package netflowv5 decodes and encodes NetFlow v5 datagrams.
//
// A datagram is a 24-byte header followed by up to 30 records of 48
// bytes each. All integers are big-endian.
package netflowv5

import "errors"

const (
	// Version is the version tag of NetFlow v5 datagrams.
	Version = 5
	// HeaderSize is the size of the datagram header.
	HeaderSize = 24
	// RecordSize is the size of one flow record.
	RecordSize = 48
	// MaxRecords is the maximum number of records in one datagram.
	MaxRecords = 30
)

var (
	// ErrTooShortForVersion is returned when the datagram cannot hold a version tag.
	ErrTooShortForVersion = errors.New("datagram too short for version")
	// ErrUnsupportedVersion is returned when the version tag is not 5.
	ErrUnsupportedVersion = errors.New("unsupported NetFlow version")
	// ErrHeaderTooShort is returned when the datagram cannot hold a v5 header.
	ErrHeaderTooShort = errors.New("datagram too short for NetFlow v5 header")
	// ErrTooManyRecords is returned when the record count is above 30.
	ErrTooManyRecords = errors.New("too many records in NetFlow v5 datagram")
	// ErrInvalidSampling is returned when encoding an out-of-range sampling mode or interval.
	ErrInvalidSampling = errors.New("invalid sampling mode or interval")
	// ErrNotIPv4 is returned when encoding a record with a non-IPv4 address.
	ErrNotIPv4 = errors.New("NetFlow v5 only carries IPv4 addresses")
)

// PeekVersion returns the version tag of a datagram.
func PeekVersion(payload []byte) (uint16, error) {
	if len(payload) < 2 {
		return 0, ErrTooShortForVersion
	}
	return uint16(payload[0])<<8 | uint16(payload[1]), nil
}
