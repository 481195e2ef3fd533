package handlers

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Dosada05/hackathon-registration/forms"
	"github.com/Dosada05/hackathon-registration/limiter"
	"github.com/Dosada05/hackathon-registration/middleware"
	"github.com/Dosada05/hackathon-registration/services"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	actionSubmit            = "submit"
	actionAddParticipant    = "add_participant"
	actionRemoveParticipant = "remove_participant:"
)

var pageTemplates = template.Must(template.New("").Funcs(template.FuncMap{
	"participantPath": forms.ParticipantPath,
	"add":             func(a, b int) int { return a + b },
}).ParseFS(templateFS, "templates/register.html"))

type registerPage struct {
	State        *forms.State
	Countries    forms.Countries
	Open         bool
	ClosedNotice string
}

// FormHandler serves the server-rendered registration page. The form state
// travels in the posted body, so every action re-renders the whole page.
type FormHandler struct {
	registrationService services.RegistrationService
	limiter             limiter.Limiter
	logger              *slog.Logger
}

// NewFormHandler builds the page handler. submitLimiter may be nil.
func NewFormHandler(registrationService services.RegistrationService, submitLimiter limiter.Limiter, logger *slog.Logger) *FormHandler {
	return &FormHandler{
		registrationService: registrationService,
		limiter:             submitLimiter,
		logger:              logger,
	}
}

func (h *FormHandler) Show(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, forms.NewState(h.registrationService.Schema()))
}

func (h *FormHandler) Post(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBodyBytes))
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	values, err := forms.DecodeForm(r.PostForm)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	state := forms.StateFrom(h.registrationService.Schema(), values, r.PostForm.Get("submitted") != "")

	action := r.PostForm.Get("action")
	switch {
	case action == actionAddParticipant:
		if err := state.AppendParticipant(); err != nil && !errors.Is(err, forms.ErrTooManyParticipants) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.render(w, r, http.StatusOK, state)

	case strings.HasPrefix(action, actionRemoveParticipant):
		index, err := strconv.Atoi(strings.TrimPrefix(action, actionRemoveParticipant))
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid action %q", action), http.StatusBadRequest)
			return
		}
		if err := state.RemoveParticipant(index); err != nil && !errors.Is(err, forms.ErrLastParticipant) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.render(w, r, http.StatusOK, state)

	case action == actionSubmit || action == "":
		h.submit(w, r, state)

	default:
		http.Error(w, fmt.Sprintf("invalid action %q", action), http.StatusBadRequest)
	}
}

func (h *FormHandler) submit(w http.ResponseWriter, r *http.Request, state *forms.State) {
	if !state.Validate() {
		h.render(w, r, http.StatusUnprocessableEntity, state)
		return
	}

	if h.limiter != nil {
		decision, err := h.limiter.Allow(r.Context(), middleware.ClientIP(r))
		switch {
		case err != nil:
			h.logger.Error("rate limiter unavailable", slog.Any("error", err))
		case !decision.Allowed:
			state.SetNotice(forms.NoticeError, forms.NoticeTooManyRequests)
			h.render(w, r, http.StatusTooManyRequests, state)
			return
		}
	}

	_, err := h.registrationService.Submit(r.Context(), state.Values)
	var validationErr *services.ValidationError
	switch {
	case err == nil:
		state.Reset()
		state.SetNotice(forms.NoticeSuccess, forms.NoticeSubmitted)
		h.render(w, r, http.StatusCreated, state)
	case errors.As(err, &validationErr):
		state.SetErrors(validationErr.Fields)
		h.render(w, r, http.StatusUnprocessableEntity, state)
	case errors.Is(err, services.ErrRegistrationClosed):
		state.SetNotice(forms.NoticeError, forms.NoticeApplicationsClosed)
		h.render(w, r, http.StatusForbidden, state)
	case errors.Is(err, services.ErrRegistrationConflict):
		state.SetErrors(forms.FieldErrors{"project_name": duplicateProjectMessage})
		h.render(w, r, http.StatusConflict, state)
	default:
		logServerError(r, err)
		state.SetNotice(forms.NoticeError, forms.NoticeSubmitFailed)
		h.render(w, r, http.StatusInternalServerError, state)
	}
}

func (h *FormHandler) render(w http.ResponseWriter, r *http.Request, status int, state *forms.State) {
	def := h.registrationService.FormDefinition()
	page := registerPage{
		State:        state,
		Countries:    def.Countries,
		Open:         def.Open,
		ClosedNotice: forms.NoticeApplicationsClosed,
	}

	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, "register", page); err != nil {
		logServerError(r, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Error("failed to write page", slog.Any("error", err))
	}
}
