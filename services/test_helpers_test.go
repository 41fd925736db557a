package services

import (
	"context"
	"police_case_app_go/db"
	"police_case_app_go/models"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens an isolated in-memory database. A single connection
// serializes transactions the way row locks would on a server database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dbName := "mem_" + uuid.New().String()
	testDB, err := gorm.Open(sqlite.Open("file:"+dbName+"?mode=memory&cache=shared&_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := testDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, testDB.AutoMigrate(db.Schema()...))
	return testDB
}

// recordingNotifier keeps every notice it is asked to deliver. Reads first
// settle, which waits for background deliveries.
type recordingNotifier struct {
	mu      sync.Mutex
	notices []Notice
	err     error
	settle  func()
}

func (r *recordingNotifier) Notify(ctx context.Context, notice Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, notice)
	return r.err
}

func (r *recordingNotifier) ofType(noticeType models.NotificationType) []Notice {
	r.wait()
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Notice
	for _, n := range r.notices {
		if n.Type == noticeType {
			out = append(out, n)
		}
	}
	return out
}

func (r *recordingNotifier) reset() {
	r.wait()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = nil
}

func (r *recordingNotifier) wait() {
	if r.settle != nil {
		r.settle()
	}
}

// fixture is two centers with their staff and the wired workflow services
type fixture struct {
	db       *gorm.DB
	notifier *recordingNotifier
	wf       *Workflow

	centerA *models.Center
	centerB *models.Center

	superAdmin  *models.User
	adminA      *models.User
	adminA2     *models.User
	adminB      *models.User
	officerA    *models.User
	officerB    *models.User
	inv7        *models.User
	inv8        *models.User
	inv9        *models.User
	invB        *models.User
	inactiveInv *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	testDB := setupTestDB(t)
	notifier := &recordingNotifier{}

	f := &fixture{
		db:       testDB,
		notifier: notifier,
		wf:       NewWorkflow(testDB, notifier, zerolog.Nop()),
	}
	notifier.settle = f.wf.Wait
	t.Cleanup(f.wf.Wait)

	f.centerA = f.createCenter(t, "Central Station", "CEN")
	f.centerB = f.createCenter(t, "North Station", "NTH")

	f.superAdmin = f.createUser(t, "Commissioner", models.RoleSuperAdmin, nil)
	f.adminA = f.createUser(t, "Admin Central", models.RoleAdmin, f.centerA)
	f.adminA2 = f.createUser(t, "Deputy Central", models.RoleAdmin, f.centerA)
	f.adminB = f.createUser(t, "Admin North", models.RoleAdmin, f.centerB)
	f.officerA = f.createUser(t, "Officer Central", models.RoleOBOfficer, f.centerA)
	f.officerB = f.createUser(t, "Officer North", models.RoleOBOfficer, f.centerB)
	f.inv7 = f.createUser(t, "Investigator Seven", models.RoleInvestigator, f.centerA)
	f.inv8 = f.createUser(t, "Investigator Eight", models.RoleInvestigator, f.centerA)
	f.inv9 = f.createUser(t, "Investigator Nine", models.RoleInvestigator, f.centerA)
	f.invB = f.createUser(t, "Investigator North", models.RoleInvestigator, f.centerB)

	f.inactiveInv = f.createUser(t, "Investigator Retired", models.RoleInvestigator, f.centerA)
	require.NoError(t, testDB.Model(f.inactiveInv).Update("is_active", false).Error)
	f.inactiveInv.IsActive = false

	return f
}

func (f *fixture) createCenter(t *testing.T, name, code string) *models.Center {
	t.Helper()
	center := &models.Center{Name: name, Code: code, IsActive: true}
	require.NoError(t, f.db.Create(center).Error)
	return center
}

func (f *fixture) createUser(t *testing.T, name, role string, center *models.Center) *models.User {
	t.Helper()
	user := &models.User{
		Name:     name,
		Email:    uuid.New().String() + "@police.test",
		Password: "not-a-real-hash",
		Role:     role,
		IsActive: true,
	}
	if center != nil {
		user.CenterID = &center.ID
	}
	require.NoError(t, f.db.Create(user).Error)
	return user
}

func (f *fixture) actor(u *models.User) ActorContext {
	return ActorFromUser(u)
}

// seedCase inserts a case directly in the given state, without history rows
func (f *fixture) seedCase(t *testing.T, creator *models.User, status models.CaseStatus) *models.Case {
	t.Helper()
	suffix := uuid.New().String()[:8]
	c := &models.Case{
		CenterID:    *creator.CenterID,
		CaseNumber:  "SEED-" + suffix,
		OBNumber:    "OB/SEED/" + suffix,
		Title:       "Burglary at market street",
		CreatedBy:   creator.ID,
		Status:      status,
		CourtStatus: models.CourtStatusNotSent,
	}
	require.NoError(t, f.db.Create(c).Error)
	return c
}

// assignedCase walks a seeded approved case through a first assignment
func (f *fixture) assignedCase(t *testing.T, lead *models.User, others ...*models.User) *models.Case {
	t.Helper()
	c := f.seedCase(t, f.officerA, models.CaseStatusApproved)
	ids := []string{lead.ID}
	for _, u := range others {
		ids = append(ids, u.ID)
	}
	_, err := f.wf.Lifecycle.Assign(context.Background(), c.ID, AssignRequest{InvestigatorIDs: ids, LeadID: lead.ID}, f.actor(f.adminA))
	require.NoError(t, err)
	return f.reload(t, c.ID)
}

func (f *fixture) reload(t *testing.T, caseID string) *models.Case {
	t.Helper()
	var c models.Case
	require.NoError(t, f.db.First(&c, "id = ?", caseID).Error)
	return &c
}

func (f *fixture) historyCount(t *testing.T, caseID string) int64 {
	t.Helper()
	count, err := f.wf.Trail.Count(context.Background(), caseID)
	require.NoError(t, err)
	return count
}

func (f *fixture) assignments(t *testing.T, caseID string) []models.CaseAssignment {
	t.Helper()
	var rows []models.CaseAssignment
	require.NoError(t, f.db.Where("case_id = ?", caseID).Order("assigned_at ASC").Find(&rows).Error)
	return rows
}

func (f *fixture) activeInvestigators(t *testing.T, caseID string) []string {
	t.Helper()
	var ids []string
	require.NoError(t, f.db.Model(&models.CaseAssignment{}).
		Where("case_id = ? AND status = ?", caseID, models.AssignmentStatusActive).
		Pluck("investigator_id", &ids).Error)
	sort.Strings(ids)
	return ids
}

func (f *fixture) activeLeads(t *testing.T, caseID string) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(&models.CaseAssignment{}).
		Where("case_id = ? AND status = ? AND is_lead = ?", caseID, models.AssignmentStatusActive, true).
		Count(&count).Error)
	return count
}

// failInserts makes every insert into table fail with err
func (f *fixture) failInserts(t *testing.T, table string, err error) {
	t.Helper()
	require.NoError(t, f.db.Callback().Create().Before("gorm:create").
		Register("test:fail_insert_"+table, failOn(table, err)))
}

// failUpdates makes every update of table fail with err
func (f *fixture) failUpdates(t *testing.T, table string, err error) {
	t.Helper()
	require.NoError(t, f.db.Callback().Update().Before("gorm:update").
		Register("test:fail_update_"+table, failOn(table, err)))
}

func failOn(table string, err error) func(*gorm.DB) {
	return func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			tx.AddError(err)
		}
	}
}

func sortedIDs(users ...*models.User) []string {
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	sort.Strings(ids)
	return ids
}
