// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package reporter_test

import (
	"testing"

	"netflowd/common/helpers"
	"netflowd/common/reporter"
)

func TestMetrics(t *testing.T) {
	r := reporter.NewMock(t)

	counter1 := r.Counter(reporter.CounterOpts{
		Name: "counter1",
		Help: "Some counter",
	})
	counter1.Add(18)

	counter2 := r.CounterVec(reporter.CounterOpts{
		Name: "counter2",
		Help: "Another counter",
	}, []string{"label1", "label2"})
	counter2.WithLabelValues("value1", "value2").Add(42)
	counter2.WithLabelValues("value3 space", "value4").Add(167)

	gauge1 := r.Gauge(reporter.GaugeOpts{
		Name: "gauge1",
		Help: "Some gauge",
	})
	gauge1.Set(1717)

	r.GaugeFunc(reporter.GaugeOpts{
		Name: "gauge2",
		Help: "Another gauge",
	}, func() float64 { return 77 })

	histo1 := r.Histogram(reporter.HistogramOpts{
		Name:    "histo1",
		Help:    "Some histogram",
		Buckets: []float64{0, 1, 2, 10, 100},
	})
	histo1.Observe(5)
	histo1.Observe(6)
	histo1.Observe(1)
	histo1.Observe(5.5)

	summary1 := r.SummaryVec(reporter.SummaryOpts{
		Name:       "summary1",
		Help:       "Some summary",
		Objectives: map[float64]float64{0.5: 0.05},
	}, []string{"label"})
	summary1.WithLabelValues("value1").Observe(15)

	got := r.GetMetrics("netflowd_common_reporter_test_")
	expected := map[string]string{
		`counter1`: "18",
		`counter2{label1="value1",label2="value2"}`:       "42",
		`counter2{label1="value3 space",label2="value4"}`: "167",
		`gauge1`:                                 "1717",
		`gauge2`:                                 "77",
		`histo1_bucket{le="+Inf"}`:               "4",
		`histo1_bucket{le="0"}`:                  "0",
		`histo1_bucket{le="1"}`:                  "1",
		`histo1_bucket{le="10"}`:                 "4",
		`histo1_bucket{le="100"}`:                "4",
		`histo1_bucket{le="2"}`:                  "1",
		`histo1_count`:                           "4",
		`histo1_sum`:                             "17.5",
		`summary1_count{label="value1"}`:         "1",
		`summary1_sum{label="value1"}`:           "15",
		`summary1{label="value1",quantile="0.5"}`: "15",
	}
	if diff := helpers.Diff(got, expected); diff != "" {
		t.Fatalf("metrics (-got, +want):\n%s", diff)
	}

	got = r.GetMetrics("netflowd_common_reporter_test_", "counter")
	expected = map[string]string{
		`counter1`: "18",
		`counter2{label1="value1",label2="value2"}`:       "42",
		`counter2{label1="value3 space",label2="value4"}`: "167",
	}
	if diff := helpers.Diff(got, expected); diff != "" {
		t.Fatalf("subsetted metrics (-got, +want):\n%s", diff)
	}
}

func TestMetricsRegisterTwice(t *testing.T) {
	r := reporter.NewMock(t)
	opts := reporter.CounterOpts{Name: "counter1", Help: "Some counter"}
	c1 := r.Counter(opts)
	c2 := r.Counter(opts)
	c1.Inc()
	c2.Inc()
	got := r.GetMetrics("netflowd_common_reporter_test_")
	if diff := helpers.Diff(got, map[string]string{"counter1": "2"}); diff != "" {
		t.Fatalf("metrics (-got, +want):\n%s", diff)
	}
}
