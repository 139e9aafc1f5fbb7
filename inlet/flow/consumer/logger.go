// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package consumer

import (
	"github.com/google/uuid"

	"netflowd/common/reporter"
	"netflowd/inlet/flow/decoder/netflowv5"
)

// Logger is a consumer logging each record.
type Logger struct {
	r      *reporter.Reporter
	config Configuration

	metrics struct {
		records *reporter.CounterVec
	}
}

// NewLogger creates a new logging consumer.
func NewLogger(r *reporter.Reporter, configuration Configuration) *Logger {
	c := &Logger{
		r:      r,
		config: configuration,
	}
	c.metrics.records = r.CounterVec(
		reporter.CounterOpts{
			Name: "logged_records_total",
			Help: "Number of records logged.",
		},
		[]string{"exporter"},
	)
	return c
}

// Consume logs the provided record.
func (c *Logger) Consume(listener uuid.UUID, record *netflowv5.Record) {
	c.metrics.records.WithLabelValues(record.ClientAddress.String()).Inc()
	c.r.WithLevel(c.config.LogLevel).
		Stringer("listener", listener).
		EmbedObject(record).
		Msg(record.String())
}
