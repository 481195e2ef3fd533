package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/hackathon-registration/forms"
	"github.com/Dosada05/hackathon-registration/services"
)

const duplicateProjectMessage = "Ya existe un proyecto registrado con este nombre"

type RegistrationHandler struct {
	registrationService services.RegistrationService
}

func NewRegistrationHandler(registrationService services.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrationService: registrationService}
}

// GetForm godoc
// @Summary Definición del formulario de registro
// @Tags registrations
// @Description Valores por defecto, límite de participantes, catálogo de países y si se aceptan aplicaciones.
// @Produce json
// @Success 200 {object} map[string]interface{} "Definición del formulario"
// @Router /api/registrations/form [get]
func (h *RegistrationHandler) GetForm(w http.ResponseWriter, r *http.Request) {
	if err := writeJSON(w, http.StatusOK, jsonResponse{"form": h.registrationService.FormDefinition()}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Validate godoc
// @Summary Validar un formulario sin enviarlo
// @Tags registrations
// @Accept json
// @Produce json
// @Param input body forms.RegistrationForm true "Formulario"
// @Success 200 {object} map[string]interface{} "Formulario válido"
// @Failure 400 {object} map[string]string "JSON inválido"
// @Failure 422 {object} map[string]interface{} "Errores por campo"
// @Router /api/registrations/validate [post]
func (h *RegistrationHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var form forms.RegistrationForm
	if err := readJSON(w, r, &form); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.registrationService.Validate(form); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"valid": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Submit godoc
// @Summary Registrar una participación
// @Tags registrations
// @Accept json
// @Produce json
// @Param input body forms.RegistrationForm true "Formulario"
// @Success 201 {object} map[string]interface{} "Registro creado"
// @Failure 400 {object} map[string]string "JSON inválido"
// @Failure 403 {object} map[string]string "No se aceptan más aplicaciones"
// @Failure 409 {object} map[string]string "Proyecto duplicado"
// @Failure 422 {object} map[string]interface{} "Errores por campo"
// @Failure 429 {object} map[string]string "Demasiados intentos"
// @Failure 500 {object} map[string]string "Error al registrar"
// @Router /api/registrations [post]
func (h *RegistrationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var form forms.RegistrationForm
	if err := readJSON(w, r, &form); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	reg, err := h.registrationService.Submit(r.Context(), form)
	if err != nil {
		submitErrorResponse(w, r, err)
		return
	}

	response := jsonResponse{
		"registration": reg,
		"notice":       forms.Notice{Kind: forms.NoticeSuccess, Message: forms.NoticeSubmitted},
	}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// submitErrorResponse answers a failed submit with the user-facing notices.
// Anything unexpected collapses into NoticeSubmitFailed.
func submitErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *services.ValidationError

	switch {
	case errors.As(err, &validationErr):
		failedValidationResponse(w, r, validationErr.Fields)
	case errors.Is(err, services.ErrRegistrationClosed):
		forbiddenResponse(w, r, forms.NoticeApplicationsClosed)
	case errors.Is(err, services.ErrRegistrationConflict):
		conflictResponse(w, r, duplicateProjectMessage)
	default:
		logServerError(r, err)
		errorResponse(w, r, http.StatusInternalServerError, forms.NoticeSubmitFailed)
	}
}
