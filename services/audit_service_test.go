package services

import (
	"police_case_app_go/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAuditLog(t *testing.T) {
	f := newFixture(t)
	c := f.seedCase(t, f.officerA, models.CaseStatusAssigned)

	t.Run("Resolves the user name", func(t *testing.T) {
		entry := caseAuditEntry(c, models.AuditActionUpdate, "Priority raised")
		entry.Before = map[string]interface{}{"priority": "NORMAL", "title": "Stolen motorcycle"}
		entry.After = map[string]interface{}{"priority": "URGENT", "title": "Stolen motorcycle"}
		err := WriteAuditLog(f.db, AuditContext{UserID: f.adminA.ID, UserRole: models.RoleAdmin, CenterID: f.centerA.ID, IPAddress: "10.0.0.1"}, entry)
		require.NoError(t, err)

		logs, err := CaseAuditLogs(f.db, c.ID)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, "Admin Central", logs[0].UserName)
		assert.Equal(t, f.centerA.ID, *logs[0].CenterID)
		assert.Equal(t, "10.0.0.1", logs[0].IPAddress)
		assert.Equal(t, c.CaseNumber, logs[0].ResourceName)

		changes := logs[0].Changes()
		require.Len(t, changes, 1)
		assert.Equal(t, "priority", changes[0].Field)
		assert.Equal(t, "NORMAL", changes[0].Old)
		assert.Equal(t, "URGENT", changes[0].New)
	})

	t.Run("Rolls back with the transaction", func(t *testing.T) {
		tx := f.db.Begin()
		require.NoError(t, WriteAuditLog(tx, AuditContext{UserID: f.adminA.ID, CenterID: f.centerA.ID},
			caseAuditEntry(c, models.AuditActionUpdate, "Discarded")))
		require.NoError(t, tx.Rollback().Error)

		logs, err := CaseAuditLogs(f.db, c.ID)
		require.NoError(t, err)
		assert.Len(t, logs, 1)
	})
}

func TestCenterAuditLogs(t *testing.T) {
	f := newFixture(t)
	c := f.seedCase(t, f.officerA, models.CaseStatusAssigned)
	other := f.seedCase(t, f.officerB, models.CaseStatusAssigned)

	write := func(actor *models.User, centerID string, kase *models.Case, action models.AuditAction, description string) {
		require.NoError(t, WriteAuditLog(f.db, AuditContext{UserID: actor.ID, UserRole: actor.Role, CenterID: centerID},
			caseAuditEntry(kase, action, description)))
	}
	write(f.adminA, f.centerA.ID, c, models.AuditActionReassign, "Investigators reassigned")
	write(f.adminA, f.centerA.ID, c, models.AuditActionDeadlineChange, "Investigation deadline updated")
	write(f.officerA, f.centerA.ID, c, models.AuditActionCreate, "Case opened")
	write(f.adminB, f.centerB.ID, other, models.AuditActionCreate, "Case opened")

	t.Run("Scoped to the center", func(t *testing.T) {
		page, err := CenterAuditLogs(f.db, f.centerA.ID, AuditLogQuery{})
		require.NoError(t, err)
		assert.Equal(t, int64(3), page.Total)
		assert.Len(t, page.Logs, 3)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, defaultAuditPageSize, page.PageSize)
	})

	tests := []struct {
		name  string
		query AuditLogQuery
		want  int64
	}{
		{"By user", AuditLogQuery{UserID: f.adminA.ID}, 2},
		{"By action", AuditLogQuery{Action: string(models.AuditActionCreate)}, 1},
		{"By text", AuditLogQuery{Search: "deadline"}, 1},
		{"Text and user", AuditLogQuery{Search: "Case", UserID: f.adminA.ID}, 0},
		{"In the future", AuditLogQuery{From: time.Now().Add(time.Hour)}, 0},
		{"Other resource type", AuditLogQuery{ResourceType: models.AuditResourceUser}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := CenterAuditLogs(f.db, f.centerA.ID, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, page.Total)
		})
	}

	t.Run("Pagination", func(t *testing.T) {
		page, err := CenterAuditLogs(f.db, f.centerA.ID, AuditLogQuery{Page: 2, PageSize: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(3), page.Total)
		assert.Len(t, page.Logs, 1)
	})
}
