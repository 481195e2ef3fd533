package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Dosada05/hackathon-registration/forms"
	"github.com/Dosada05/hackathon-registration/services"
	"github.com/stretchr/testify/assert"
)

func TestMapServiceErrorToHTTP(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &services.ValidationError{Fields: forms.FieldErrors{"project_name": "obligatorio"}}, http.StatusUnprocessableEntity},
		{"not found", services.ErrRegistrationNotFound, http.StatusNotFound},
		{"admin disabled", services.ErrAdminDisabled, http.StatusNotFound},
		{"conflict wrapped", fmt.Errorf("submit: %w", services.ErrRegistrationConflict), http.StatusConflict},
		{"closed", services.ErrRegistrationClosed, http.StatusForbidden},
		{"bad credentials", services.ErrInvalidCredentials, http.StatusUnauthorized},
		{"export unavailable", services.ErrExportUnavailable, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)

			mapServiceErrorToHTTP(rr, req, tt.err)

			assert.Equal(t, tt.want, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		})
	}
}
