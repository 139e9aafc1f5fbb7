// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package netflowv5

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"

	"netflowd/common/helpers"
)

func TestRecordString(t *testing.T) {
	records := fixtureExpected()
	got := []string{records[0].String(), records[1].String()}
	expected := []string{
		"2023-11-14T22:13:20.123456789Z 192.0.2.100 192.0.2.1:443 -> 198.51.100.2:50000 tcp 10 packets 1400 bytes",
		"2023-11-14T22:13:20.123456789Z 192.0.2.100 10.0.0.1:53 -> 10.0.0.2:33000 udp 1 packets 76 bytes",
	}
	if diff := helpers.Diff(got, expected); diff != "" {
		t.Fatalf("String() (-got, +want):\n%s", diff)
	}
}

func TestProtocolName(t *testing.T) {
	for proto, expected := range map[uint8]string{
		6:   "tcp",
		17:  "udp",
		1:   "icmp",
		253: "253",
	} {
		r := Record{Protocol: proto}
		if got := r.ProtocolName(); got != expected {
			t.Errorf("ProtocolName(%d) == %q, expected %q", proto, got, expected)
		}
	}
}

func TestRecordMarshalZerologObject(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	logger.Info().EmbedObject(fixtureExpected()[0]).Msg("flow")

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("json.Unmarshal() error:\n%+v", err)
	}
	expected := map[string]any{
		"level":             "info",
		"message":           "flow",
		"exporter":          "192.0.2.100",
		"export-time":       "2023-11-14T22:13:20Z",
		"src-addr":          "192.0.2.1",
		"dst-addr":          "198.51.100.2",
		"next-hop":          "203.0.113.254",
		"in-if":             3.,
		"out-if":            4.,
		"src-port":          443.,
		"dst-port":          50000.,
		"protocol":          "tcp",
		"tcp-flags":         27.,
		"tos":               16.,
		"src-as":            65000.,
		"dst-as":            65001.,
		"src-mask":          24.,
		"dst-mask":          16.,
		"packets":           10.,
		"bytes":             1400.,
		"first":             100.,
		"last":              200.,
		"sequence":          42.,
		"sampling-mode":     3.,
		"sampling-interval": 5.,
	}
	if diff := helpers.Diff(got, expected); diff != "" {
		t.Fatalf("MarshalZerologObject() (-got, +want):\n%s", diff)
	}
}
