// Package metrics exposes Prometheus counters for authentication outcomes.
// A nil *Auth is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Auth struct {
	authentications *prometheus.CounterVec
	logins          *prometheus.CounterVec
	revocations     *prometheus.CounterVec
}

func NewAuth(reg prometheus.Registerer) *Auth {
	m := &Auth{
		authentications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bibee",
			Subsystem: "auth",
			Name:      "token_checks_total",
			Help:      "Token validations by token type and result.",
		}, []string{"type", "result"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bibee",
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		revocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bibee",
			Subsystem: "auth",
			Name:      "revocations_total",
			Help:      "Revocation store writes by kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.authentications, m.logins, m.revocations)
	return m
}

func (m *Auth) TokenChecked(tokenType, result string) {
	if m == nil {
		return
	}
	m.authentications.WithLabelValues(tokenType, result).Inc()
}

func (m *Auth) LoginAttempted(success bool) {
	if m == nil {
		return
	}
	result := "failure"
	if success {
		result = "success"
	}
	m.logins.WithLabelValues(result).Inc()
}

// Revoked counts a blacklist ("token") or watermark ("user") write.
func (m *Auth) Revoked(kind string) {
	if m == nil {
		return
	}
	m.revocations.WithLabelValues(kind).Inc()
}
