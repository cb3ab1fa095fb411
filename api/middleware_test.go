package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/barangayportal/barangay-portal-api/api"
	"github.com/barangayportal/barangay-portal-api/models"
)

func TestRequireAdmin(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := api.RequireAdmin(next)

	tests := []struct {
		name     string
		user     api.AuthUser
		withUser bool
		want     int
	}{
		{name: "admin passes", user: api.AuthUser{Username: "kap.santos", Role: models.RoleAdmin}, withUser: true, want: http.StatusOK},
		{name: "resident rejected", user: api.AuthUser{Username: "maria", Role: models.RoleResident}, withUser: true, want: http.StatusForbidden},
		{name: "no identity rejected", withUser: false, want: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest("DELETE", "/api/v1/cases/abc", nil)
			if tt.withUser {
				req = req.WithContext(api.WithAuthUser(req.Context(), tt.user))
			}

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.want, rr.Code)
			if tt.want == http.StatusForbidden {
				assert.JSONEq(t, `{"error": "Admin only."}`, rr.Body.String())
			}
		})
	}
}

func TestAuthUserIsAdmin(t *testing.T) {
	assert.True(t, api.AuthUser{Role: models.RoleAdmin}.IsAdmin())
	assert.False(t, api.AuthUser{Role: models.RoleResident}.IsAdmin())
	assert.False(t, api.AuthUser{}.IsAdmin())
}
