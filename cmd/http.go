// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package cmd

import (
	"netflowd/common/httpserver"
	"netflowd/common/reporter"
)

// addCommonHTTPHandlers configures various endpoints common to all
// services.
func addCommonHTTPHandlers(r *reporter.Reporter, httpComponent *httpserver.Component) {
	httpComponent.AddHandler("/api/v0/metrics", r.MetricsHTTPHandler())
	httpComponent.GinRouter.GET("/api/v0/healthcheck", r.HealthcheckHTTPHandler)
	httpComponent.GinRouter.GET("/api/v0/version", versionHandler)
}
