// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package steam

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the optional prometheus metrics of a RelyingParty. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	outcomes             *prometheus.CounterVec
	checkAuthDuration    prometheus.Histogram
	profileFetchFailures prometheus.Counter
}

// NewMetrics creates and registers the relying party metrics with reg. When
// reg is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	const op = "steam.NewMetrics"
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "steam_openid",
			Name:      "outcomes_total",
			Help:      "Authentication outcomes by kind and rejection reason.",
		}, []string{"outcome", "reason"}),
		checkAuthDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "steam_openid",
			Name:      "check_authentication_duration_seconds",
			Help:      "Latency of check_authentication requests to the provider.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		profileFetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "steam_openid",
			Name:      "profile_fetch_failures_total",
			Help:      "Profile enrichment failures that were ignored.",
		}),
	}
	for _, c := range []prometheus.Collector{m.outcomes, m.checkAuthDuration, m.profileFetchFailures} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("%s: unable to register metrics: %w", op, err)
		}
	}
	return m, nil
}

func (m *Metrics) outcome(o *Outcome) {
	if m == nil || o == nil {
		return
	}
	reason := ""
	if o.Rejection != nil && o.Rejection.Code != nil {
		reason = o.Rejection.Code.Error()
	}
	m.outcomes.WithLabelValues(o.Kind.String(), reason).Inc()
}

func (m *Metrics) observeCheckAuthentication(start time.Time) {
	if m == nil {
		return
	}
	m.checkAuthDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) profileFetchFailed() {
	if m == nil {
		return
	}
	m.profileFetchFailures.Inc()
}
