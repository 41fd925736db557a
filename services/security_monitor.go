package services

import (
	"fmt"
	"police_case_app_go/metrics"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Failed login alerting thresholds
const (
	FailedLoginWindow    = 10 * time.Minute
	FailedLoginThreshold = 5
	alertCooldown        = time.Hour
	maxAlerts            = 100
)

// SecurityAlert is raised when one source keeps failing to log in
type SecurityAlert struct {
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"` // "ip:<addr>" or "email:<address>"
	Reason    string    `json:"reason"`
}

// LoginMonitor counts failed logins per client IP and per target email, and
// raises an alert when a source reaches FailedLoginThreshold failures within
// FailedLoginWindow. A source alerts at most once per alertCooldown.
type LoginMonitor struct {
	mu       sync.Mutex
	logger   zerolog.Logger
	now      func() time.Time
	failures map[string][]time.Time
	alerted  map[string]time.Time
	alerts   []SecurityAlert
}

// Monitor is the process-wide login monitor
var Monitor = NewLoginMonitor(zerolog.Nop())

func NewLoginMonitor(logger zerolog.Logger) *LoginMonitor {
	return &LoginMonitor{
		logger:   logger,
		now:      time.Now,
		failures: make(map[string][]time.Time),
		alerted:  make(map[string]time.Time),
	}
}

// RecordFailure tracks a failed login from ip against email and reports
// whether it raised an alert
func (m *LoginMonitor) RecordFailure(ip, email string) bool {
	metrics.ObserveFailedLogin()

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	raised := false
	if ip != "" && m.track("ip:"+ip, now) {
		raised = true
	}
	if email != "" && m.track("email:"+email, now) {
		raised = true
	}
	return raised
}

// track must be called with m.mu held
func (m *LoginMonitor) track(source string, now time.Time) bool {
	windowStart := now.Add(-FailedLoginWindow)
	var recent []time.Time
	for _, t := range m.failures[source] {
		if t.After(windowStart) {
			recent = append(recent, t)
		}
	}
	recent = append(recent, now)
	m.failures[source] = recent

	if len(recent) < FailedLoginThreshold {
		return false
	}
	if last, ok := m.alerted[source]; ok && now.Sub(last) < alertCooldown {
		return false
	}
	m.alerted[source] = now

	alert := SecurityAlert{
		Timestamp: now,
		Source:    source,
		Reason:    fmt.Sprintf("%d failed logins within %s", len(recent), FailedLoginWindow),
	}
	m.alerts = append([]SecurityAlert{alert}, m.alerts...)
	if len(m.alerts) > maxAlerts {
		m.alerts = m.alerts[:maxAlerts]
	}

	metrics.ObserveSecurityAlert()
	m.logger.Warn().Str("source", source).Int("failures", len(recent)).Msg("repeated failed logins")
	return true
}

// RecentAlerts returns the newest alerts first
func (m *LoginMonitor) RecentAlerts() []SecurityAlert {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SecurityAlert, len(m.alerts))
	copy(out, m.alerts)
	return out
}

// Prune forgets failures outside the window and expired alert cooldowns
func (m *LoginMonitor) Prune() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for source, attempts := range m.failures {
		if len(attempts) == 0 || now.Sub(attempts[len(attempts)-1]) > FailedLoginWindow {
			delete(m.failures, source)
		}
	}
	for source, last := range m.alerted {
		if now.Sub(last) > alertCooldown {
			delete(m.alerted, source)
		}
	}
}
