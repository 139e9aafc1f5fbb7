// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package cmd_test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"netflowd/cmd"
	"netflowd/common/helpers"
	"netflowd/common/helpers/yaml"
)

type dummyConfiguration struct {
	Module1 dummyModule1Configuration
	Module2 dummyModule2Configuration
}
type dummyModule1Configuration struct {
	Listen  string `validate:"listen"`
	Topic   string
	Workers int `validate:"min=1"`
}
type dummyModule2Configuration struct {
	Details     dummyModule2DetailsConfiguration
	Elements    []dummyModule2ElementsConfiguration
	MoreDetails `mapstructure:",squash" yaml:",inline"`
}
type MoreDetails struct {
	Stuff string
}
type dummyModule2ElementsConfiguration struct {
	Name  string
	Gauge int
}
type dummyModule2DetailsConfiguration struct {
	Workers       int
	IntervalValue time.Duration
}

var dummyDefaultConfiguration = dummyConfiguration{
	Module1: dummyModule1Configuration{
		Listen:  "127.0.0.1:8080",
		Topic:   "nothingness",
		Workers: 100,
	},
	Module2: dummyModule2Configuration{
		MoreDetails: MoreDetails{
			Stuff: "hello",
		},
		Details: dummyModule2DetailsConfiguration{
			Workers:       1,
			IntervalValue: time.Minute,
		},
	},
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error:\n%+v", err)
	}
	return path
}

func TestDump(t *testing.T) {
	// Configuration file
	config := `---
module1:
 topic: flows
module2:
 details:
  workers: 5
  interval-value: 20m
 stuff: bye
 elements:
  - name: first
    gauge: 67
  - name: second
`
	configFile := writeFile(t, t.TempDir(), "config.yaml", config)

	c := cmd.ConfigRelatedOptions{
		Path: configFile,
		Dump: true,
	}

	parsed := dummyDefaultConfiguration
	out := bytes.NewBuffer([]byte{})
	if err := c.Parse(out, "dummy", &parsed); err != nil {
		t.Fatalf("Parse() error:\n%+v", err)
	}
	// Expected configuration
	expected := dummyConfiguration{
		Module1: dummyModule1Configuration{
			Listen:  "127.0.0.1:8080",
			Topic:   "flows",
			Workers: 100,
		},
		Module2: dummyModule2Configuration{
			MoreDetails: MoreDetails{
				Stuff: "bye",
			},
			Details: dummyModule2DetailsConfiguration{
				Workers:       5,
				IntervalValue: 20 * time.Minute,
			},
			Elements: []dummyModule2ElementsConfiguration{
				{"first", 67},
				{"second", 0},
			},
		},
	}
	if diff := helpers.Diff(parsed, expected); diff != "" {
		t.Errorf("Parse() (-got, +want):\n%s", diff)
	}

	var gotRaw map[string]map[string]any
	if err := yaml.Unmarshal(out.Bytes(), &gotRaw); err != nil {
		t.Fatalf("Unmarshal() error:\n%+v", err)
	}
	expectedRaw := map[string]map[string]any{
		"module1": {
			"listen":  "127.0.0.1:8080",
			"topic":   "flows",
			"workers": 100,
		},
		"module2": {
			"stuff": "bye",
			"details": map[string]any{
				"workers":       5,
				"intervalvalue": "20m0s",
			},
			"elements": []any{
				map[string]any{
					"name":  "first",
					"gauge": 67,
				},
				map[string]any{
					"name":  "second",
					"gauge": 0,
				},
			},
		},
	}
	if diff := helpers.Diff(gotRaw, expectedRaw); diff != "" {
		t.Errorf("Parse() (-got, +want):\n%s", diff)
	}
}

func TestEnvOverride(t *testing.T) {
	// Configuration file
	config := `---
module1:
 topic: flows
module2:
 details:
  workers: 5
  interval-value: 20m
`
	configFile := writeFile(t, t.TempDir(), "config.yaml", config)

	// Environment
	t.Setenv("NETFLOWD_DUMMY_MODULE1_LISTEN", "127.0.0.1:9000")
	t.Setenv("NETFLOWD_DUMMY_MODULE1_TOPIC", "something")
	t.Setenv("NETFLOWD_DUMMY_MODULE2_DETAILS_INTERVALVALUE", "10m")
	t.Setenv("NETFLOWD_DUMMY_MODULE2_STUFF", "bye")
	t.Setenv("NETFLOWD_DUMMY_MODULE2_ELEMENTS_0_NAME", "something")
	t.Setenv("NETFLOWD_DUMMY_MODULE2_ELEMENTS_0_GAUGE", "18")
	t.Setenv("NETFLOWD_DUMMY_MODULE2_ELEMENTS_1_NAME", "something else")
	t.Setenv("NETFLOWD_DUMMY_MODULE2_ELEMENTS_1_GAUGE", "7")
	t.Setenv("NETFLOWD_OTHER_MODULE1_TOPIC", "ignored")

	c := cmd.ConfigRelatedOptions{
		Path: configFile,
	}

	parsed := dummyDefaultConfiguration
	out := bytes.NewBuffer([]byte{})
	if err := c.Parse(out, "dummy", &parsed); err != nil {
		t.Fatalf("Parse() error:\n%+v", err)
	}
	// Expected configuration
	expected := dummyConfiguration{
		Module1: dummyModule1Configuration{
			Listen:  "127.0.0.1:9000",
			Topic:   "something",
			Workers: 100,
		},
		Module2: dummyModule2Configuration{
			MoreDetails: MoreDetails{
				Stuff: "bye",
			},
			Details: dummyModule2DetailsConfiguration{
				Workers:       5,
				IntervalValue: 10 * time.Minute,
			},
			Elements: []dummyModule2ElementsConfiguration{
				{"something", 18},
				{"something else", 7},
			},
		},
	}
	if diff := helpers.Diff(parsed, expected); diff != "" {
		t.Errorf("Parse() (-got, +want):\n%s", diff)
	}
	if out.Len() != 0 {
		t.Errorf("Parse() wrote something without dump:\n%s", out.String())
	}
}

func TestIncludeAndAnchors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "module2.yaml", "stuff: included\n")
	configFile := writeFile(t, dir, "config.yaml", `---
.defaults: &defaults
  workers: 12
module1:
  <<: *defaults
  topic: anchored
module2: !include module2.yaml
`)

	c := cmd.ConfigRelatedOptions{Path: configFile}
	parsed := dummyDefaultConfiguration
	if err := c.Parse(&bytes.Buffer{}, "dummy", &parsed); err != nil {
		t.Fatalf("Parse() error:\n%+v", err)
	}
	expected := dummyDefaultConfiguration
	expected.Module1.Topic = "anchored"
	expected.Module1.Workers = 12
	expected.Module2.Stuff = "included"
	if diff := helpers.Diff(parsed, expected); diff != "" {
		t.Errorf("Parse() (-got, +want):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		Pos    helpers.Pos
		Config string
	}{
		{helpers.Mark(), "module1:\n unknown: 1\n"},
		{helpers.Mark(), "module1:\n workers: 0\n"},
		{helpers.Mark(), "module1:\n listen: 127.0.0.1\n"},
		{helpers.Mark(), "module1: [\n"},
	}
	for idx, tc := range cases {
		configFile := writeFile(t, dir, fmt.Sprintf("config-%d.yaml", idx), tc.Config)
		c := cmd.ConfigRelatedOptions{Path: configFile}
		parsed := dummyDefaultConfiguration
		if err := c.Parse(&bytes.Buffer{}, "dummy", &parsed); err == nil {
			t.Errorf("%sParse() did not error", tc.Pos)
		}
	}
	c := cmd.ConfigRelatedOptions{Path: filepath.Join(dir, "missing.yaml")}
	parsed := dummyDefaultConfiguration
	if err := c.Parse(&bytes.Buffer{}, "dummy", &parsed); err == nil {
		t.Error("Parse() did not error on a missing file")
	}
}
