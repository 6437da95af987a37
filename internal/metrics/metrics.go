// Package metrics exposes login flow counters on the default Prometheus
// registry, served at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LoginInitiated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskfront_login_initiated_total",
		Help: "Login flows started, by identity provider.",
	}, []string{"provider"})

	LoginCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskfront_login_completed_total",
		Help: "Login flows that established a session, by identity provider.",
	}, []string{"provider"})

	LoginFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskfront_login_failed_total",
		Help: "Login flows that ended in a terminal failure, by provider and reason.",
	}, []string{"provider", "reason"})

	SessionValidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskfront_session_validations_total",
		Help: "Session validation checks, by outcome.",
	}, []string{"outcome"})

	Logouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taskfront_logouts_total",
		Help: "Logout requests handled.",
	})
)
