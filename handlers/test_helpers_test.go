package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"police_case_app_go/config"
	"police_case_app_go/db"
	"police_case_app_go/middleware"
	"police_case_app_go/models"
	"police_case_app_go/services"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Use unique shared memory name to isolate tests
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

	// Set global DB
	db.DB = testDB

	return testDB
}

// noticeRecorder collects workflow notices instead of delivering them
type noticeRecorder struct {
	mu      sync.Mutex
	notices []services.Notice
}

func (r *noticeRecorder) Notify(ctx context.Context, notice services.Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, notice)
	return nil
}

// station is one center with its staff, backed by a fresh database
type station struct {
	db       *gorm.DB
	wf       *services.Workflow
	notifier *noticeRecorder

	center       *models.Center
	admin        *models.User
	officer      *models.User
	investigator *models.User
	otherAdmin   *models.User
}

func newStation(t *testing.T) *station {
	t.Helper()
	testDB := setupTestDB(t)
	notifier := &noticeRecorder{}
	s := &station{
		db:       testDB,
		notifier: notifier,
		wf:       services.NewWorkflow(testDB, notifier, zerolog.Nop()),
	}
	t.Cleanup(s.wf.Wait)

	s.center = &models.Center{Name: "Central Station", Code: "CEN", IsActive: true}
	require.NoError(t, testDB.Create(s.center).Error)
	other := &models.Center{Name: "North Station", Code: "NTH", IsActive: true}
	require.NoError(t, testDB.Create(other).Error)

	s.admin = createTestUser(t, testDB, "Admin Central", "admin@central.test", models.RoleAdmin, s.center.ID)
	s.officer = createTestUser(t, testDB, "Officer Central", "officer@central.test", models.RoleOBOfficer, s.center.ID)
	s.investigator = createTestUser(t, testDB, "Investigator Central", "investigator@central.test", models.RoleInvestigator, s.center.ID)
	s.otherAdmin = createTestUser(t, testDB, "Admin North", "admin@north.test", models.RoleAdmin, other.ID)
	return s
}

func createTestUser(t *testing.T, database *gorm.DB, name, email, role, centerID string) *models.User {
	t.Helper()
	hashed, err := services.HashPassword("correct-horse-battery")
	require.NoError(t, err)
	user := &models.User{
		Name:     name,
		Email:    email,
		Password: hashed,
		Role:     role,
		IsActive: true,
	}
	if centerID != "" {
		user.CenterID = &centerID
	}
	require.NoError(t, database.Create(user).Error)
	return user
}

// seedCase inserts a case of the station directly in the given state
func (s *station) seedCase(t *testing.T, status models.CaseStatus) *models.Case {
	t.Helper()
	suffix := uuid.New().String()[:8]
	c := &models.Case{
		CenterID:    s.center.ID,
		CaseNumber:  "SEED-" + suffix,
		OBNumber:    "OB/SEED/" + suffix,
		Title:       "Stolen motorcycle",
		CreatedBy:   s.officer.ID,
		Status:      status,
		CourtStatus: models.CourtStatusNotSent,
	}
	require.NoError(t, s.db.Create(c).Error)
	return c
}

func (s *station) reload(t *testing.T, caseID string) *models.Case {
	t.Helper()
	var c models.Case
	require.NoError(t, s.db.First(&c, "id = ?", caseID).Error)
	return &c
}

func setupEcho(method, path string, body io.Reader) (*echo.Echo, echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	// Add config to context
	c.Set("config", &config.Config{
		Environment: "test",
	})

	return e, c, rec
}

func jsonBody(t *testing.T, v interface{}) io.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

// caseRequest builds a workflow request for caseID made by user
func (s *station) caseRequest(t *testing.T, method, caseID string, user *models.User, body interface{}) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		reader = jsonBody(t, body)
	}
	_, c, rec := setupEcho(method, "/api/cases/"+caseID, reader)
	c.SetParamNames("id")
	c.SetParamValues(caseID)
	c.Set(ContextKeyWorkflow, s.wf)
	if user != nil {
		c.Set(middleware.ContextKeyUser, user)
	}
	return c, rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func decodeCase(t *testing.T, rec *httptest.ResponseRecorder) models.Case {
	t.Helper()
	var c models.Case
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	return c
}

func requireHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected *echo.HTTPError, got %T", err)
	require.Equal(t, code, httpErr.Code)
}
