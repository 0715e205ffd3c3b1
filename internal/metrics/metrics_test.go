package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestAuth_Counters(t *testing.T) {
	m := NewAuth(prometheus.NewRegistry())

	m.TokenChecked("access", "ok")
	m.TokenChecked("access", "ok")
	m.TokenChecked("refresh", "revoked")
	m.LoginAttempted(true)
	m.LoginAttempted(false)
	m.LoginAttempted(false)
	m.Revoked("token")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.authentications.WithLabelValues("access", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.authentications.WithLabelValues("refresh", "revoked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.logins.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.logins.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.revocations.WithLabelValues("token")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.revocations.WithLabelValues("user")))
}

func TestAuth_NilIsNoop(t *testing.T) {
	var m *Auth
	assert.NotPanics(t, func() {
		m.TokenChecked("access", "ok")
		m.LoginAttempted(true)
		m.Revoked("user")
	})
}
