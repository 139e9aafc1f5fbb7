// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package consumer

import (
	"net/netip"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"netflowd/common/helpers"
	"netflowd/inlet/flow/decoder/netflowv5"
)

func TestConsumerFunc(t *testing.T) {
	id := uuid.New()
	record := &netflowv5.Record{SrcAddr: netip.MustParseAddr("192.0.2.1")}
	var gotID uuid.UUID
	var gotRecord *netflowv5.Record
	var c Consumer = ConsumerFunc(func(listener uuid.UUID, r *netflowv5.Record) {
		gotID = listener
		gotRecord = r
	})
	c.Consume(id, record)
	if gotID != id {
		t.Errorf("Consume() listener == %s, expected %s", gotID, id)
	}
	if gotRecord != record {
		t.Errorf("Consume() did not receive the record")
	}
}

func TestConfigurationDecode(t *testing.T) {
	helpers.TestConfigurationDecode(t, helpers.ConfigurationDecodeCases{
		{
			Description:   "default",
			Initial:       func() any { return DefaultConfiguration() },
			Configuration: func() any { return map[string]any{} },
			Expected:      DefaultConfiguration(),
		}, {
			Description:   "debug",
			Initial:       func() any { return DefaultConfiguration() },
			Configuration: func() any { return map[string]any{"log-level": "debug"} },
			Expected:      Configuration{LogLevel: zerolog.DebugLevel},
		}, {
			Description:   "unknown level",
			Initial:       func() any { return DefaultConfiguration() },
			Configuration: func() any { return map[string]any{"log-level": "loud"} },
			Error:         true,
		},
	})
}
