// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

// Package consumer defines what receives decoded flow records from a
// listener.
package consumer

import (
	"github.com/google/uuid"

	"netflowd/inlet/flow/decoder/netflowv5"
)

// Consumer receives each decoded record, one at a time, from the
// receive loop of a listener. Consume is called synchronously: a slow
// consumer delays the reception of the next datagram. Records must
// not be modified as the header is shared between the records of a
// datagram.
type Consumer interface {
	Consume(listener uuid.UUID, record *netflowv5.Record)
}

// ConsumerFunc turns a function into a Consumer.
type ConsumerFunc func(listener uuid.UUID, record *netflowv5.Record)

// Consume calls f(listener, record).
func (f ConsumerFunc) Consume(listener uuid.UUID, record *netflowv5.Record) {
	f(listener, record)
}
