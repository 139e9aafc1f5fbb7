// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package demoexporter

import (
	"net/netip"
	"testing"
	"time"

	"netflowd/common/helpers"
)

func TestDefaultConfiguration(t *testing.T) {
	config := DefaultConfiguration()
	config.Flows = []FlowConfiguration{testFlowConfiguration()}
	config.Target = "127.0.0.1:2055"
	if err := helpers.Validate.Struct(config); err != nil {
		t.Fatalf("validate.Struct() error:\n%+v", err)
	}
}

func TestConfigurationDecode(t *testing.T) {
	helpers.TestConfigurationDecode(t, helpers.ConfigurationDecodeCases{
		{
			Description: "complete",
			Initial:     func() any { return DefaultConfiguration() },
			Configuration: func() any {
				return map[string]any{
					"target":            "127.0.0.1:2055",
					"interval":          "500ms",
					"flows-per-packet":  20,
					"engine-type":       1,
					"engine-id":         2,
					"sampling-interval": 100,
					"seed":              42,
					"flows": []map[string]any{
						{
							"per-second":   10,
							"in-if-index":  []int{1, 2},
							"out-if-index": []int{3},
							"peak-hour":    "16h",
							"multiplier":   2.5,
							"src-net":      "192.0.2.0/24",
							"dst-net":      "203.0.113.0/24",
							"src-as":       []int{65001},
							"dst-as":       []int{65002},
							"dst-port":     []int{443, 80},
							"protocol":     []string{"tcp", "udp"},
						},
					},
				}
			},
			Expected: Configuration{
				Target:           "127.0.0.1:2055",
				Interval:         500 * time.Millisecond,
				FlowsPerPacket:   20,
				EngineType:       1,
				EngineID:         2,
				SamplingMode:     1,
				SamplingInterval: 100,
				Seed:             42,
				Flows: []FlowConfiguration{
					{
						PerSecond:  10,
						InIfIndex:  []uint16{1, 2},
						OutIfIndex: []uint16{3},
						PeakHour:   16 * time.Hour,
						Multiplier: 2.5,
						SrcNet:     netip.MustParsePrefix("192.0.2.0/24"),
						DstNet:     netip.MustParsePrefix("203.0.113.0/24"),
						SrcAS:      []uint16{65001},
						DstAS:      []uint16{65002},
						DstPort:    []uint16{443, 80},
						Protocol:   []string{"tcp", "udp"},
					},
				},
			},
		}, {
			Description: "too many flows per packet",
			Initial:     func() any { return DefaultConfiguration() },
			Configuration: func() any {
				return map[string]any{
					"target":           "127.0.0.1:2055",
					"flows-per-packet": 31,
					"flows": []map[string]any{
						{
							"per-second":   10,
							"in-if-index":  []int{1},
							"out-if-index": []int{3},
							"multiplier":   1,
							"src-net":      "192.0.2.0/24",
							"dst-net":      "203.0.113.0/24",
							"src-as":       []int{65001},
							"dst-as":       []int{65002},
							"protocol":     []string{"tcp"},
						},
					},
				}
			},
			Error: true,
		}, {
			Description: "IPv6 network",
			Initial:     func() any { return DefaultConfiguration() },
			Configuration: func() any {
				return map[string]any{
					"target": "127.0.0.1:2055",
					"flows": []map[string]any{
						{
							"per-second":   10,
							"in-if-index":  []int{1},
							"out-if-index": []int{3},
							"multiplier":   1,
							"src-net":      "2001:db8::/64",
							"dst-net":      "203.0.113.0/24",
							"src-as":       []int{65001},
							"dst-as":       []int{65002},
							"protocol":     []string{"tcp"},
						},
					},
				}
			},
			Error: true,
		}, {
			Description:   "missing target",
			Initial:       func() any { return DefaultConfiguration() },
			Configuration: func() any { return map[string]any{} },
			Error:         true,
		},
	})
}
