package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Dosada05/hackathon-registration/services"
)

// exportWriteTimeout replaces the server-wide write timeout for exports, which
// page through every registration and upload the CSV before responding.
const exportWriteTimeout = 5 * time.Minute

// AdminHandler exposes registrations to organizers.
type AdminHandler struct {
	registrationService services.RegistrationService
	exportService       *services.ExportService
}

func NewAdminHandler(registrationService services.RegistrationService, exportService *services.ExportService) *AdminHandler {
	return &AdminHandler{
		registrationService: registrationService,
		exportService:       exportService,
	}
}

// ListRegistrations godoc
// @Summary Listar registros
// @Tags admin
// @Produce json
// @Param limit query int false "Tamaño de página (máx. 500)"
// @Param offset query int false "Desplazamiento"
// @Success 200 {object} services.RegistrationPage
// @Failure 400 {object} map[string]string "Parámetros inválidos"
// @Failure 401 {object} map[string]string "No autenticado"
// @Failure 403 {object} map[string]string "Sin permisos"
// @Security BearerAuth
// @Router /admin/registrations [get]
func (h *AdminHandler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	limit, err := getIntQuery(r, "limit", 0)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	offset, err := getIntQuery(r, "offset", 0)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	page, err := h.registrationService.List(r.Context(), services.ListParams{Limit: limit, Offset: offset})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, page, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetRegistration godoc
// @Summary Obtener un registro
// @Tags admin
// @Produce json
// @Param reference path string true "Referencia (UUID)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Referencia inválida"
// @Failure 404 {object} map[string]string "No encontrado"
// @Security BearerAuth
// @Router /admin/registrations/{reference} [get]
func (h *AdminHandler) GetRegistration(w http.ResponseWriter, r *http.Request) {
	reference, err := getReferenceFromURL(r, "reference")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	reg, err := h.registrationService.Get(r.Context(), reference)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"registration": reg}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// WithdrawRegistration godoc
// @Summary Retirar un registro
// @Tags admin
// @Param reference path string true "Referencia (UUID)"
// @Success 204 "Retirado"
// @Failure 400 {object} map[string]string "Referencia inválida"
// @Failure 404 {object} map[string]string "No encontrado"
// @Security BearerAuth
// @Router /admin/registrations/{reference} [delete]
func (h *AdminHandler) WithdrawRegistration(w http.ResponseWriter, r *http.Request) {
	reference, err := getReferenceFromURL(r, "reference")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.registrationService.Withdraw(r.Context(), reference); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ExportRegistrations godoc
// @Summary Exportar registros a CSV en R2
// @Tags admin
// @Produce json
// @Success 201 {object} services.ExportResult
// @Failure 503 {object} map[string]string "Almacenamiento no configurado"
// @Security BearerAuth
// @Router /admin/registrations/export [post]
func (h *AdminHandler) ExportRegistrations(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Now().Add(exportWriteTimeout)); err != nil && !errors.Is(err, http.ErrNotSupported) {
		slog.Default().Warn("failed to extend export write deadline", slog.Any("error", err))
	}

	result, err := h.exportService.Export(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"export": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
