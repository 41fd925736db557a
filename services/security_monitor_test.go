package services

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMonitor(start time.Time) (*LoginMonitor, *time.Time) {
	now := start
	m := NewLoginMonitor(zerolog.Nop())
	m.now = func() time.Time { return now }
	return m, &now
}

func TestLoginMonitor(t *testing.T) {
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	t.Run("Alert at the threshold", func(t *testing.T) {
		m, _ := newTestMonitor(start)
		for i := 0; i < FailedLoginThreshold-1; i++ {
			assert.False(t, m.RecordFailure("10.0.0.1", ""))
		}
		assert.True(t, m.RecordFailure("10.0.0.1", ""))

		alerts := m.RecentAlerts()
		require.Len(t, alerts, 1)
		assert.Equal(t, "ip:10.0.0.1", alerts[0].Source)
		assert.Contains(t, alerts[0].Reason, "5 failed logins")
	})

	t.Run("One alert per cooldown", func(t *testing.T) {
		m, now := newTestMonitor(start)
		for i := 0; i < FailedLoginThreshold; i++ {
			m.RecordFailure("10.0.0.2", "")
		}
		assert.False(t, m.RecordFailure("10.0.0.2", ""))
		assert.Len(t, m.RecentAlerts(), 1)

		*now = now.Add(alertCooldown + time.Minute)
		for i := 0; i < FailedLoginThreshold-1; i++ {
			assert.False(t, m.RecordFailure("10.0.0.2", ""))
		}
		assert.True(t, m.RecordFailure("10.0.0.2", ""))
		assert.Len(t, m.RecentAlerts(), 2)
	})

	t.Run("Failures outside the window do not count", func(t *testing.T) {
		m, now := newTestMonitor(start)
		for i := 0; i < FailedLoginThreshold-1; i++ {
			m.RecordFailure("10.0.0.3", "")
		}
		*now = now.Add(FailedLoginWindow + time.Second)
		assert.False(t, m.RecordFailure("10.0.0.3", ""))
		assert.Empty(t, m.RecentAlerts())
	})

	t.Run("Distributed attempts on one account", func(t *testing.T) {
		m, _ := newTestMonitor(start)
		raised := false
		for i := 0; i < FailedLoginThreshold; i++ {
			raised = m.RecordFailure("10.1.0."+string(rune('1'+i)), "admin@central.test")
		}
		assert.True(t, raised)
		alerts := m.RecentAlerts()
		require.Len(t, alerts, 1)
		assert.Equal(t, "email:admin@central.test", alerts[0].Source)
	})

	t.Run("Prune", func(t *testing.T) {
		m, now := newTestMonitor(start)
		for i := 0; i < FailedLoginThreshold; i++ {
			m.RecordFailure("10.0.0.4", "")
		}
		*now = now.Add(alertCooldown + time.Minute)
		m.Prune()

		m.mu.Lock()
		defer m.mu.Unlock()
		assert.Empty(t, m.failures)
		assert.Empty(t, m.alerted)
		assert.Len(t, m.alerts, 1)
	})
}
