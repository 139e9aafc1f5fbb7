// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package netflowv5

import (
	"fmt"
	"net/netip"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Header is the header of a NetFlow v5 datagram. It is shared by all
// the records of the datagram and should not be modified.
type Header struct {
	ClientUptimeMillis uint32
	ExportTime         time.Time
	SequenceNumber     uint32
	EngineType         uint8
	EngineID           uint8
	SamplingMode       uint8  // 2 bits
	SamplingInterval   uint16 // 14 bits
}

// Record is one flow record. ClientAddress is the address of the
// exporter as seen by the listener. ExportTime is a copy of the
// header's export time.
type Record struct {
	ClientAddress netip.Addr
	Header        *Header

	SrcAddr  netip.Addr
	DstAddr  netip.Addr
	NextHop  netip.Addr
	InIf     uint16
	OutIf    uint16
	Packets  uint32
	Bytes    uint32
	First    uint32 // sysUptime at flow start
	Last     uint32 // sysUptime at last packet
	SrcPort  uint16
	DstPort  uint16
	Padding  uint8
	TCPFlags uint8
	Protocol uint8
	ToS      uint8
	SrcAS    uint16
	DstAS    uint16
	SrcMask  uint8
	DstMask  uint8
	Unused   uint16

	ExportTime time.Time
}

var protocolNames = map[uint8]string{
	1:   "icmp",
	6:   "tcp",
	17:  "udp",
	47:  "gre",
	50:  "esp",
	58:  "icmpv6",
	132: "sctp",
}

// ProtocolName returns the name of the IP protocol of the record, or
// its number when unknown.
func (r *Record) ProtocolName() string {
	if name, ok := protocolNames[r.Protocol]; ok {
		return name
	}
	return strconv.Itoa(int(r.Protocol))
}

// String returns a one-line summary of the record.
func (r *Record) String() string {
	return fmt.Sprintf("%s %s %s -> %s %s %d packets %d bytes",
		r.ExportTime.UTC().Format(time.RFC3339Nano),
		r.ClientAddress,
		netip.AddrPortFrom(r.SrcAddr, r.SrcPort),
		netip.AddrPortFrom(r.DstAddr, r.DstPort),
		r.ProtocolName(),
		r.Packets, r.Bytes)
}

// MarshalZerologObject adds the fields of the record to a log event.
func (r *Record) MarshalZerologObject(e *zerolog.Event) {
	e.Stringer("exporter", r.ClientAddress).
		Time("export-time", r.ExportTime).
		Stringer("src-addr", r.SrcAddr).
		Stringer("dst-addr", r.DstAddr).
		Stringer("next-hop", r.NextHop).
		Uint16("in-if", r.InIf).
		Uint16("out-if", r.OutIf).
		Uint16("src-port", r.SrcPort).
		Uint16("dst-port", r.DstPort).
		Str("protocol", r.ProtocolName()).
		Uint8("tcp-flags", r.TCPFlags).
		Uint8("tos", r.ToS).
		Uint16("src-as", r.SrcAS).
		Uint16("dst-as", r.DstAS).
		Uint8("src-mask", r.SrcMask).
		Uint8("dst-mask", r.DstMask).
		Uint32("packets", r.Packets).
		Uint32("bytes", r.Bytes).
		Uint32("first", r.First).
		Uint32("last", r.Last)
	if r.Header != nil {
		e.Uint32("sequence", r.Header.SequenceNumber).
			Uint8("sampling-mode", r.Header.SamplingMode).
			Uint16("sampling-interval", r.Header.SamplingInterval)
	}
}
