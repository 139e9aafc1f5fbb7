// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

// Package metrics handles metrics for netflowd.
//
// This is a wrapper around Prometheus Go client.
package metrics

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"netflowd/common/reporter/logger"
	"netflowd/common/reporter/stack"
)

// Metrics represents the internal state of the metric subsystem.
type Metrics struct {
	logger           logger.Logger
	config           Configuration
	registry         *prometheus.Registry
	factoryCache     map[string]*Factory
	factoryCacheLock sync.RWMutex
}

// New creates a new metric registry with the Go runtime and process
// collectors already registered.
func New(logger logger.Logger, configuration Configuration) (*Metrics, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg.MustRegister(collectors.NewGoCollector())
	return &Metrics{
		logger:       logger,
		config:       configuration,
		registry:     reg,
		factoryCache: make(map[string]*Factory),
	}, nil
}

// HTTPHandler returns an handler to serve Prometheus metrics.
func (m *Metrics) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog: promHTTPLogger{m.logger},
	})
}

// promHTTPLogger is an adapter for logger.Logger to be used as promhttp.Logger
type promHTTPLogger struct {
	l logger.Logger
}

func (m promHTTPLogger) Println(v ...interface{}) {
	m.l.Warn().Msg(fmt.Sprint(v...))
}

// getPrefix turns a function name into a metric prefix:
// netflowd/inlet/flow/input/udp.(*Input).Start becomes
// netflowd_inlet_flow_input_udp_.
func getPrefix(function string) string {
	module := stack.ModuleName
	if strings.HasPrefix(function, stack.ModuleName) {
		module, _, _ = strings.Cut(function, ".")
	}
	module = strings.NewReplacer("/", "_", ".", "_", "-", "_").Replace(module)
	return module + "_"
}

// Factory returns a factory to register new metrics. It includes the
// module of the caller as an automatic prefix. skipCallstack tells how
// many frames to skip to find the caller. Factories are cached by
// caller to avoid walking the stack too often.
func (m *Metrics) Factory(skipCallstack int) *Factory {
	call := stack.Callers()[1+skipCallstack]
	function := call.FunctionName()

	m.factoryCacheLock.RLock()
	factory, ok := m.factoryCache[function]
	m.factoryCacheLock.RUnlock()
	if ok {
		return factory
	}

	m.factoryCacheLock.Lock()
	defer m.factoryCacheLock.Unlock()
	if factory, ok := m.factoryCache[function]; ok {
		return factory
	}
	factory = &Factory{
		prefix:   getPrefix(function),
		registry: m.registry,
	}
	m.factoryCache[function] = factory
	return factory
}
