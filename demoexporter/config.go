// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package demoexporter

import (
	"net/netip"
	"time"

	"netflowd/inlet/flow/decoder/netflowv5"
)

// Configuration describes the configuration for the demo exporter.
type Configuration struct {
	// Target specify the IP address and port to send datagrams to.
	Target string `validate:"required,hostname_port"`
	// Interval is the delay between two batches of datagrams.
	Interval time.Duration `validate:"min=100ms"`
	// FlowsPerPacket is the maximum number of records in a datagram.
	FlowsPerPacket int `validate:"min=1,max=30"`
	// EngineType and EngineID identify the flow switching engine.
	EngineType uint8
	EngineID   uint8
	// SamplingMode and SamplingInterval are copied to each datagram.
	SamplingMode     uint8  `validate:"max=3"`
	SamplingInterval uint16 `validate:"max=16383"`
	// Flows describe the flows we want to generate.
	Flows []FlowConfiguration `validate:"min=1,dive"`
	// Seed defines a seed to add to the random generator. Without
	// one, all exporters will produce the same data if provided
	// the same flows.
	Seed int64
}

// FlowConfiguration describes the configuration for a flow.
type FlowConfiguration struct {
	// PerSecond defines how many of those flows should be created per second
	PerSecond float64 `validate:"required,gt=0"`
	// InIfIndex defines the input interfaces
	InIfIndex []uint16 `validate:"min=1,dive,min=1"`
	// OutIfIndex defines the output interfaces
	OutIfIndex []uint16 `validate:"min=1,dive,min=1"`
	// PeakHour defines the peak hour
	PeakHour time.Duration `validate:"min=0,max=24h"`
	// Multiplier defines how to multiply the `PerSecond` when near the peak hour
	Multiplier float64 `validate:"required,gt=0"`
	// SrcNet defines the source network to use
	SrcNet netip.Prefix `validate:"required,cidrv4"`
	// DstNet defines the destination network to use
	DstNet netip.Prefix `validate:"required,cidrv4"`
	// SrcAS defines the source AS numbers to use
	SrcAS []uint16 `validate:"min=1"`
	// DstAS defines the destination AS numbers to use
	DstAS []uint16 `validate:"min=1"`
	// SrcPort defines the source ports to use
	SrcPort []uint16
	// DstPort defines the destination ports to use
	DstPort []uint16
	// Protocol defines the IP protocols to use
	Protocol []string `validate:"min=1,dive,oneof=tcp udp icmp"`
	// Size defines the packet size to use
	Size uint32 `validate:"isdefault|min=64,isdefault|max=9000"`
	// ReverseDirectionRatio generate a second flow for each flow
	// generated in the opposite direction, by applying the
	// provided ratio for the Size.
	ReverseDirectionRatio float32 `validate:"min=0"`
}

// DefaultConfiguration represents the default configuration for the demo exporter.
func DefaultConfiguration() Configuration {
	return Configuration{
		Interval:         time.Second,
		FlowsPerPacket:   netflowv5.MaxRecords,
		SamplingMode:     1,
		SamplingInterval: 1000,
	}
}
