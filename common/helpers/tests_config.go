// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

//go:build !release

package helpers

import (
	"testing"

	"github.com/go-viper/mapstructure/v2"

	"netflowd/common/helpers/yaml"
)

// ConfigurationDecodeCases describes test cases for configuration
// decoding. Initial and Configuration are functions as decoding may
// mutate the values they return.
type ConfigurationDecodeCases []struct {
	Description    string
	Pos            Pos
	Initial        func() any // initial value for configuration
	Configuration  func() any // configuration to decode
	Expected       any
	Error          bool
	SkipValidation bool
}

// TestConfigurationDecode decodes each configuration into the initial
// value and compares with the expected result. Each case is run twice:
// once with the raw value and once after a round-trip through YAML.
func TestConfigurationDecode(t *testing.T, cases ConfigurationDecodeCases, options ...DiffOption) {
	t.Helper()
	for _, tc := range cases {
		for _, fromYAML := range []bool{false, true} {
			title := tc.Description
			if fromYAML {
				title += " (from YAML)"
			}
			t.Run(title, func(t *testing.T) {
				t.Helper()
				configuration := tc.Configuration()
				if fromYAML {
					out, err := yaml.Marshal(configuration)
					if err != nil {
						t.Fatalf("%syaml.Marshal() error:\n%+v", tc.Pos, err)
					}
					configuration = nil
					if err := yaml.Unmarshal(out, &configuration); err != nil {
						t.Fatalf("%syaml.Unmarshal() error:\n%+v", tc.Pos, err)
					}
				}

				got := tc.Initial()
				decoder, err := mapstructure.NewDecoder(GetMapStructureDecoderConfig(&got))
				if err != nil {
					t.Fatalf("%sNewDecoder() error:\n%+v", tc.Pos, err)
				}
				err = decoder.Decode(configuration)
				if err == nil && !tc.SkipValidation {
					err = Validate.Struct(got)
				}
				switch {
				case err != nil && tc.Error:
					return
				case err != nil:
					t.Fatalf("%sDecode() error:\n%+v", tc.Pos, err)
				case tc.Error:
					t.Fatalf("%sDecode() did not error", tc.Pos)
				}

				if diff := Diff(got, tc.Expected, options...); diff != "" {
					t.Fatalf("%sDecode() (-got, +want):\n%s", tc.Pos, diff)
				}
			})
		}
	}
}
