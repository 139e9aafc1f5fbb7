// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package cmd

import (
	"fmt"
	"runtime"
	"testing"

	"github.com/gin-gonic/gin"

	"netflowd/common/helpers"
	"netflowd/common/httpserver"
	"netflowd/common/reporter"
)

func TestCommonHTTPHandlers(t *testing.T) {
	r := reporter.NewMock(t)
	h := httpserver.NewMock(t, r)
	addCommonHTTPHandlers(r, h)
	versionMetrics(r)

	helpers.TestHTTPEndpoints(t, h.LocalAddr(), helpers.HTTPEndpointCases{
		{
			URL: "/api/v0/version",
			JSONOutput: gin.H{
				"version":    "dev",
				"build_date": "unknown",
				"compiler":   runtime.Version(),
			},
		}, {
			URL:        "/api/v0/healthcheck",
			JSONOutput: gin.H{"status": "ok"},
		},
	})

	gotMetrics := r.GetMetrics("netflowd_cmd_")
	expectedMetrics := map[string]string{
		fmt.Sprintf(`info{build_date="unknown",compiler="%s",version="dev"}`, runtime.Version()): "1",
	}
	if diff := helpers.Diff(gotMetrics, expectedMetrics); diff != "" {
		t.Fatalf("Metrics (-got, +want):\n%s", diff)
	}
}
