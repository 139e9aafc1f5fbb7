// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package netflowv5

import (
	"bytes"
	"fmt"
	"net/netip"
	"time"

	"github.com/netsampler/goflow2/v2/decoders/netflowlegacy"
)

// Decode decodes a NetFlow v5 datagram received from client. It
// returns the records in wire order. When the datagram ends before
// the declared number of records, the complete records are returned
// without error.
func Decode(payload []byte, client netip.Addr) ([]*Record, error) {
	version, err := PeekVersion(payload)
	if err != nil {
		return nil, err
	}
	if version != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	if len(payload) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrHeaderTooShort, len(payload))
	}
	// Checked before goflow2 allocates the records.
	count := int(payload[2])<<8 | int(payload[3])
	if count > MaxRecords {
		return nil, fmt.Errorf("%w: %d", ErrTooManyRecords, count)
	}

	var packet netflowlegacy.PacketNetFlowV5
	if err := netflowlegacy.DecodeMessage(bytes.NewBuffer(payload[2:]), &packet); err != nil {
		return nil, fmt.Errorf("cannot decode NetFlow v5 datagram: %w", err)
	}
	header := &Header{
		ClientUptimeMillis: packet.SysUptime,
		ExportTime:         time.Unix(int64(packet.UnixSecs), int64(packet.UnixNSecs)).UTC(),
		SequenceNumber:     packet.FlowSequence,
		EngineType:         packet.EngineType,
		EngineID:           packet.EngineId,
		SamplingMode:       uint8(packet.SamplingInterval >> 14),
		SamplingInterval:   packet.SamplingInterval & 0x3fff,
	}

	// goflow2 allocates all the declared records but only fills the
	// complete ones.
	complete := min(count, len(packet.Records), (len(payload)-HeaderSize)/RecordSize)
	records := make([]*Record, 0, complete)
	for _, r := range packet.Records[:complete] {
		records = append(records, &Record{
			ClientAddress: client,
			Header:        header,
			SrcAddr:       addrFromIPAddress(r.SrcAddr),
			DstAddr:       addrFromIPAddress(r.DstAddr),
			NextHop:       addrFromIPAddress(r.NextHop),
			InIf:          r.Input,
			OutIf:         r.Output,
			Packets:       r.DPkts,
			Bytes:         r.DOctets,
			First:         r.First,
			Last:          r.Last,
			SrcPort:       r.SrcPort,
			DstPort:       r.DstPort,
			Padding:       r.Pad1,
			TCPFlags:      r.TCPFlags,
			Protocol:      r.Proto,
			ToS:           r.Tos,
			SrcAS:         r.SrcAS,
			DstAS:         r.DstAS,
			SrcMask:       r.SrcMask,
			DstMask:       r.DstMask,
			Unused:        r.Pad2,
			ExportTime:    header.ExportTime,
		})
	}
	return records, nil
}

func addrFromIPAddress(ip netflowlegacy.IPAddress) netip.Addr {
	v := uint32(ip)
	return netip.AddrFrom4([4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}
