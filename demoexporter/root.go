// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

// Package demoexporter simulates a NetFlow v5 exporter.
package demoexporter

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/benbjohnson/clock"
	"gopkg.in/tomb.v2"

	"netflowd/common/daemon"
	"netflowd/common/reporter"
	"netflowd/inlet/flow/decoder/netflowv5"
)

// Component represents the demo exporter.
type Component struct {
	r      *reporter.Reporter
	d      *Dependencies
	t      tomb.Tomb
	config Configuration

	metrics struct {
		sentPackets reporter.Counter
		sentFlows   reporter.Counter
		errors      *reporter.CounterVec
	}
}

// Dependencies define the dependencies of the demo exporter.
type Dependencies struct {
	Daemon daemon.Component
	Clock  clock.Clock
}

// New creates a new demo exporter.
func New(r *reporter.Reporter, config Configuration, dependencies Dependencies) (*Component, error) {
	if dependencies.Clock == nil {
		dependencies.Clock = clock.New()
	}
	if config.FlowsPerPacket < 1 || config.FlowsPerPacket > netflowv5.MaxRecords {
		return nil, fmt.Errorf("flows per packet should be between 1 and %d", netflowv5.MaxRecords)
	}
	if config.Interval <= 0 {
		return nil, errors.New("interval should be positive")
	}
	for idx, flow := range config.Flows {
		if !flow.SrcNet.Addr().Is4() || !flow.DstNet.Addr().Is4() {
			return nil, fmt.Errorf("flow %d: only IPv4 networks can be exported", idx)
		}
	}
	c := Component{
		r:      r,
		d:      &dependencies,
		config: config,
	}

	c.metrics.sentPackets = c.r.Counter(
		reporter.CounterOpts{
			Name: "sent_packets_total",
			Help: "Number of packets sent.",
		},
	)
	c.metrics.sentFlows = c.r.Counter(
		reporter.CounterOpts{
			Name: "sent_flows_total",
			Help: "Number of flows sent.",
		},
	)
	c.metrics.errors = c.r.CounterVec(
		reporter.CounterOpts{
			Name: "errors_total",
			Help: "Number of transmission errors.",
		},
		[]string{"error"},
	)

	c.d.Daemon.Track(&c.t, "demoexporter")
	return &c, nil
}

// Start starts the demo exporter.
func (c *Component) Start() error {
	c.r.Info().Str("target", c.config.Target).Msg("starting demo exporter")
	conn, err := net.Dial("udp", c.config.Target)
	if err != nil {
		return fmt.Errorf("cannot create socket to %q: %w", c.config.Target, err)
	}

	// The sequence number is the number of flows sent so far.
	sequenceNumber := uint32(0)
	start := c.d.Clock.Now()
	ticker := c.d.Clock.Ticker(c.config.Interval)
	errLogger := c.r.Sample(reporter.BurstSampler(time.Minute, 10))

	c.t.Go(func() error {
		defer conn.Close()
		defer ticker.Stop()
		for {
			select {
			case <-c.t.Dying():
				return nil
			case now := <-ticker.C:
				uptime := now.Sub(start)
				flows := generateFlows(c.config.Flows, c.config.Seed, now, c.config.Interval, uptime)
				for len(flows) > 0 {
					n := min(len(flows), c.config.FlowsPerPacket)
					payload, err := netflowv5.Encode(netflowv5.Header{
						ClientUptimeMillis: uint32(uptime.Milliseconds()),
						ExportTime:         now,
						SequenceNumber:     sequenceNumber,
						EngineType:         c.config.EngineType,
						EngineID:           c.config.EngineID,
						SamplingMode:       c.config.SamplingMode,
						SamplingInterval:   c.config.SamplingInterval,
					}, flows[:n])
					flows = flows[n:]
					if err != nil {
						c.metrics.errors.WithLabelValues("cannot encode").Inc()
						errLogger.Err(err).Msg("unable to encode NetFlow v5 packet")
						continue
					}
					sequenceNumber += uint32(n)
					if _, err := conn.Write(payload); err != nil {
						c.metrics.errors.WithLabelValues("cannot write").Inc()
						errLogger.Err(err).Msg("unable to send UDP payload")
						continue
					}
					c.metrics.sentPackets.Inc()
					c.metrics.sentFlows.Add(float64(n))
				}
			}
		}
	})
	return nil
}

// Stop stops the demo exporter.
func (c *Component) Stop() error {
	defer c.r.Info().Msg("demo exporter stopped")
	c.r.Info().Msg("stopping the demo exporter")
	c.t.Kill(nil)
	return c.t.Wait()
}
