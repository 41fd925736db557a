package middleware

import (
	"net/http"
	"net/http/httptest"
	"police_case_app_go/models"
	"police_case_app_go/services"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditContextMiddleware(t *testing.T) {
	centerID := "center-456"

	tests := []struct {
		name string
		user *models.User
		want services.AuditContext
	}{
		{
			name: "Center admin",
			user: &models.User{ID: "user-123", Name: "Admin Central", Role: models.RoleAdmin, CenterID: &centerID},
			want: services.AuditContext{UserID: "user-123", UserName: "Admin Central", UserRole: models.RoleAdmin, CenterID: centerID},
		},
		{
			name: "Super admin has no center",
			user: &models.User{ID: "root-1", Name: "Super Admin", Role: models.RoleSuperAdmin},
			want: services.AuditContext{UserID: "root-1", UserName: "Super Admin", UserRole: models.RoleSuperAdmin},
		},
		{
			name: "Anonymous",
			want: services.AuditContext{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/cases", nil)
			req.Header.Set("User-Agent", "desk-terminal")
			c := echo.New().NewContext(req, httptest.NewRecorder())
			if tt.user != nil {
				c.Set(ContextKeyUser, tt.user)
			}

			var seen services.AuditContext
			handler := AuditContext()(func(c echo.Context) error {
				seen = GetAuditContext(c)
				return c.NoContent(http.StatusOK)
			})
			require.NoError(t, handler(c))

			tt.want.IPAddress = "192.0.2.1"
			tt.want.UserAgent = "desk-terminal"
			assert.Equal(t, tt.want, seen)
		})
	}
}

func TestGetAuditContextWithoutMiddleware(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodPost, "/api/auth/login", nil), httptest.NewRecorder())
	c.Set(ContextKeyUser, &models.User{ID: "user-9", Name: "Officer Nine", Role: models.RoleOBOfficer})

	audit := GetAuditContext(c)
	assert.Equal(t, "user-9", audit.UserID)
	assert.Equal(t, "Officer Nine", audit.UserName)
	assert.Equal(t, "192.0.2.1", audit.IPAddress)
}

func TestGetAuditContextPrefersStoredValue(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	stored := services.AuditContext{UserID: "123", IPAddress: "10.1.1.1"}
	c.Set(ContextKeyAuditContext, stored)

	assert.Equal(t, stored, GetAuditContext(c))
}
