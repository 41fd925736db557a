package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveTransition(t *testing.T) {
	counter := caseTransitions.WithLabelValues("draft", "submitted")
	before := testutil.ToFloat64(counter)

	ObserveTransition("draft", "submitted")
	ObserveTransition("draft", "submitted")

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}

func TestObserveRejected(t *testing.T) {
	counter := rejectedTransitions.WithLabelValues("reopen")
	before := testutil.ToFloat64(counter)

	ObserveRejected("reopen")

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestSecurityCounters(t *testing.T) {
	logins := testutil.ToFloat64(failedLogins)
	alerts := testutil.ToFloat64(securityAlerts)

	ObserveFailedLogin()
	ObserveSecurityAlert()

	assert.Equal(t, logins+1, testutil.ToFloat64(failedLogins))
	assert.Equal(t, alerts+1, testutil.ToFloat64(securityAlerts))
}
