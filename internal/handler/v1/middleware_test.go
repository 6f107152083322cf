package v1

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/psyscribe/psyscribe/internal/domain"
)

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		role       string
		allowed    []domain.Role
		wantStatus int
	}{
		{"admin allowed", "admin", []domain.Role{domain.RoleAdmin}, http.StatusOK},
		{"clinician blocked from admin route", "clinician", []domain.Role{domain.RoleAdmin}, http.StatusForbidden},
		{"clinician allowed when listed", "clinician", []domain.Role{domain.RoleAdmin, domain.RoleClinician}, http.StatusOK},
		{"missing role blocked", "", []domain.Role{domain.RoleAdmin}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.DELETE("/guarded",
				func(c *gin.Context) {
					if tt.role != "" {
						c.Set(ctxKeyUserRole, tt.role)
					}
				},
				RequireRole(tt.allowed...),
				func(c *gin.Context) { c.Status(http.StatusOK) },
			)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodDelete, "/guarded", nil)
			r.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
