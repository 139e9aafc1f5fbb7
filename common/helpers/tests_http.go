// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

//go:build !release

package helpers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
)

// HTTPEndpointCases describes cases for TestHTTPEndpoints. Either
// FirstLines or JSONOutput is checked.
type HTTPEndpointCases []struct {
	Pos         Pos
	Description string
	Method      string
	URL         string

	ContentType string
	StatusCode  int
	FirstLines  []string
	JSONOutput  gin.H
}

// TestHTTPEndpoints queries a few HTTP endpoints on the provided
// server and checks the answers.
func TestHTTPEndpoints(t *testing.T, serverAddr net.Addr, cases HTTPEndpointCases) {
	t.Helper()
	for _, tc := range cases {
		desc := tc.Description
		if desc == "" {
			desc = tc.URL
		}
		t.Run(desc, func(t *testing.T) {
			t.Helper()
			if tc.Method == "" {
				tc.Method = "GET"
			}
			if tc.StatusCode == 0 {
				tc.StatusCode = http.StatusOK
			}
			if tc.JSONOutput != nil {
				tc.ContentType = "application/json; charset=utf-8"
			}

			req, err := http.NewRequest(tc.Method, fmt.Sprintf("http://%s%s", serverAddr, tc.URL), nil)
			if err != nil {
				t.Fatalf("%sNewRequest() error:\n%+v", tc.Pos, err)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("%s%s %s:\n%+v", tc.Pos, tc.Method, tc.URL, err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tc.StatusCode {
				t.Errorf("%s%s %s: got status code %d, not %d",
					tc.Pos, tc.Method, tc.URL, resp.StatusCode, tc.StatusCode)
			}
			if got := resp.Header.Get("Content-Type"); got != tc.ContentType {
				t.Errorf("%s%s %s Content-Type (-got, +want):\n-%s\n+%s",
					tc.Pos, tc.Method, tc.URL, got, tc.ContentType)
			}

			if tc.JSONOutput != nil {
				var got gin.H
				if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
					t.Fatalf("%s%s %s:\n%+v", tc.Pos, tc.Method, tc.URL, err)
				}
				// Round-trip expected value to get the same JSON types.
				var expected gin.H
				expectedBytes, _ := json.Marshal(tc.JSONOutput)
				json.Unmarshal(expectedBytes, &expected)
				if diff := Diff(got, expected); diff != "" {
					t.Fatalf("%s%s %s (-got, +want):\n%s", tc.Pos, tc.Method, tc.URL, diff)
				}
				return
			}

			got := []string{}
			scanner := bufio.NewScanner(resp.Body)
			for len(got) < len(tc.FirstLines) && scanner.Scan() {
				got = append(got, scanner.Text())
			}
			expected := tc.FirstLines
			if expected == nil {
				expected = []string{}
			}
			if diff := Diff(got, expected); diff != "" {
				t.Errorf("%s%s %s (-got, +want):\n%s", tc.Pos, tc.Method, tc.URL, diff)
			}
		})
	}
}
