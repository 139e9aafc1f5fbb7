// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package netflowv5

import (
	"encoding/binary"
	"fmt"
	"net/netip"
)

// Encode builds a NetFlow v5 datagram from a header and records. The
// Header and ExportTime fields of the records are ignored: the
// provided header is used instead. Invalid (zero) addresses are
// encoded as 0.0.0.0.
func Encode(header Header, records []*Record) ([]byte, error) {
	if len(records) > MaxRecords {
		return nil, fmt.Errorf("%w: %d", ErrTooManyRecords, len(records))
	}
	if header.SamplingMode > 3 || header.SamplingInterval > 0x3fff {
		return nil, fmt.Errorf("%w: mode %d, interval %d",
			ErrInvalidSampling, header.SamplingMode, header.SamplingInterval)
	}

	be := binary.BigEndian
	b := make([]byte, HeaderSize, HeaderSize+RecordSize*len(records))
	be.PutUint16(b[0:], Version)
	be.PutUint16(b[2:], uint16(len(records)))
	be.PutUint32(b[4:], header.ClientUptimeMillis)
	be.PutUint32(b[8:], uint32(header.ExportTime.Unix()))
	be.PutUint32(b[12:], uint32(header.ExportTime.Nanosecond()))
	be.PutUint32(b[16:], header.SequenceNumber)
	b[20] = header.EngineType
	b[21] = header.EngineID
	be.PutUint16(b[22:], uint16(header.SamplingMode)<<14|header.SamplingInterval)

	for i, r := range records {
		var rb [RecordSize]byte
		for _, a := range []struct {
			addr   netip.Addr
			offset int
		}{{r.SrcAddr, 0}, {r.DstAddr, 4}, {r.NextHop, 8}} {
			if err := putAddr(rb[a.offset:], a.addr); err != nil {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
		}
		be.PutUint16(rb[12:], r.InIf)
		be.PutUint16(rb[14:], r.OutIf)
		be.PutUint32(rb[16:], r.Packets)
		be.PutUint32(rb[20:], r.Bytes)
		be.PutUint32(rb[24:], r.First)
		be.PutUint32(rb[28:], r.Last)
		be.PutUint16(rb[32:], r.SrcPort)
		be.PutUint16(rb[34:], r.DstPort)
		rb[36] = r.Padding
		rb[37] = r.TCPFlags
		rb[38] = r.Protocol
		rb[39] = r.ToS
		be.PutUint16(rb[40:], r.SrcAS)
		be.PutUint16(rb[42:], r.DstAS)
		rb[44] = r.SrcMask
		rb[45] = r.DstMask
		be.PutUint16(rb[46:], r.Unused)
		b = append(b, rb[:]...)
	}
	return b, nil
}

func putAddr(b []byte, addr netip.Addr) error {
	if !addr.IsValid() {
		return nil
	}
	addr = addr.Unmap()
	if !addr.Is4() {
		return fmt.Errorf("%w: %s", ErrNotIPv4, addr)
	}
	a4 := addr.As4()
	copy(b, a4[:])
	return nil
}
