package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	caseTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "police_case_transitions_total",
		Help: "Total number of committed case status transitions",
	}, []string{"from", "to"})

	courtTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "police_case_court_transitions_total",
		Help: "Total number of committed court status transitions",
	}, []string{"to"})

	rejectedTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "police_case_rejected_operations_total",
		Help: "Total number of workflow operations rejected before any write",
	}, []string{"operation"})

	assignments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "police_case_assignments_total",
		Help: "Total number of investigator assignment sets written",
	}, []string{"kind"})

	reopens = promauto.NewCounter(prometheus.CounterOpts{
		Name: "police_case_reopens_total",
		Help: "Total number of reopened cases",
	})

	notificationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "police_case_notification_failures_total",
		Help: "Total number of notifications that could not be delivered",
	})

	failedLogins = promauto.NewCounter(prometheus.CounterOpts{
		Name: "police_case_failed_logins_total",
		Help: "Total number of rejected login attempts",
	})

	securityAlerts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "police_case_security_alerts_total",
		Help: "Total number of raised security alerts",
	})
)

// ObserveTransition counts a committed status transition
func ObserveTransition(from, to string) {
	caseTransitions.WithLabelValues(from, to).Inc()
}

// ObserveCourtTransition counts a committed court status transition
func ObserveCourtTransition(to string) {
	courtTransitions.WithLabelValues(to).Inc()
}

// ObserveRejected counts an operation that failed validation
func ObserveRejected(operation string) {
	rejectedTransitions.WithLabelValues(operation).Inc()
}

// ObserveAssignment counts an assignment set; kind is "first", "reassign" or "reopen"
func ObserveAssignment(kind string) {
	assignments.WithLabelValues(kind).Inc()
}

// ObserveReopen counts a reopened case
func ObserveReopen() {
	reopens.Inc()
}

// ObserveNotificationFailure counts a swallowed notification error
func ObserveNotificationFailure() {
	notificationFailures.Inc()
}

// ObserveFailedLogin counts a rejected login attempt
func ObserveFailedLogin() {
	failedLogins.Inc()
}

// ObserveSecurityAlert counts a raised security alert
func ObserveSecurityAlert() {
	securityAlerts.Inc()
}
