package handlers

import (
	"errors"
	"html"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/hackathon-registration/forms"
	"github.com/Dosada05/hackathon-registration/limiter"
	"github.com/Dosada05/hackathon-registration/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validValues() url.Values {
	return url.Values{
		"project_name":                       {"Mapa Verde"},
		"project_description":                {"Un mapa colaborativo de huertos urbanos."},
		"project_url":                        {"https://github.com/example/mapa-verde"},
		"participants.0.participant_name":    {"Ana"},
		"participants.0.participant_country": {"México"},
		"participants.0.participant_email":   {"ana@example.com"},
		"terms_and_conditions":               {"on"},
	}
}

func postForm(h *FormHandler, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.Post(rr, req)
	return rr
}

func pageText(rr *httptest.ResponseRecorder) string {
	return html.UnescapeString(rr.Body.String())
}

func TestFormHandler_Show(t *testing.T) {
	h := NewFormHandler(newFakeRegistrationService(true), nil, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/register", nil)
	rr := httptest.NewRecorder()
	h.Show(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	body := pageText(rr)
	assert.Contains(t, body, "Regístrate")
	assert.Contains(t, body, `name="participants.0.participant_name"`)
	assert.NotContains(t, body, `name="participants.1.participant_name"`)
	assert.NotContains(t, body, "remove_participant:0")
	assert.Contains(t, body, `value="add_participant"`)
	assert.Contains(t, body, "Argentina")
	assert.NotContains(t, body, "checked")
	assert.NotContains(t, body, forms.NoticeApplicationsClosed)
}

func TestFormHandler_ShowClosed(t *testing.T) {
	h := NewFormHandler(newFakeRegistrationService(false), nil, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/register", nil)
	rr := httptest.NewRecorder()
	h.Show(rr, req)

	assert.Contains(t, pageText(rr), forms.NoticeApplicationsClosed)
}

func TestFormHandler_AddAndRemoveParticipant(t *testing.T) {
	h := NewFormHandler(newFakeRegistrationService(true), nil, discardLogger())

	values := validValues()
	values.Set("action", actionAddParticipant)
	rr := postForm(h, values)

	require.Equal(t, http.StatusOK, rr.Code)
	body := pageText(rr)
	assert.Contains(t, body, `name="participants.1.participant_name"`)
	assert.Contains(t, body, "remove_participant:1")
	assert.Contains(t, body, `value="Ana"`)
	// Nothing was submitted yet, so no field errors are shown for the new row.
	assert.NotContains(t, body, "field-error")

	values = validValues()
	values.Set("participants.1.participant_name", "Luis")
	values.Set("action", "remove_participant:0")
	rr = postForm(h, values)

	require.Equal(t, http.StatusOK, rr.Code)
	body = pageText(rr)
	assert.Contains(t, body, `value="Luis"`)
	assert.NotContains(t, body, `value="Ana"`)
	assert.NotContains(t, body, `name="participants.1.participant_name"`)
}

func TestFormHandler_ParticipantLimits(t *testing.T) {
	h := NewFormHandler(newFakeRegistrationService(true), nil, discardLogger())

	values := validValues()
	values.Set("action", "remove_participant:0")
	body := pageText(postForm(h, values))
	assert.Contains(t, body, `name="participants.0.participant_name"`)

	values = validValues()
	values.Set("participants.1.participant_name", "Luis")
	values.Set("participants.2.participant_name", "Sofía")
	values.Set("action", actionAddParticipant)
	rr := postForm(h, values)
	require.Equal(t, http.StatusOK, rr.Code)
	body = pageText(rr)
	assert.NotContains(t, body, `name="participants.3.participant_name"`)
	assert.NotContains(t, body, `value="add_participant"`)
}

func TestFormHandler_BadRequests(t *testing.T) {
	h := NewFormHandler(newFakeRegistrationService(true), nil, discardLogger())

	tests := []struct {
		name   string
		mutate func(url.Values)
	}{
		{"unknown action", func(v url.Values) { v.Set("action", "launch") }},
		{"bad remove index", func(v url.Values) { v.Set("action", "remove_participant:x") }},
		{"remove out of range", func(v url.Values) { v.Set("action", "remove_participant:5") }},
		{"unknown participant field", func(v url.Values) { v.Set("participants.0.age", "30") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := validValues()
			tt.mutate(values)
			assert.Equal(t, http.StatusBadRequest, postForm(h, values).Code)
		})
	}
}

func TestFormHandler_SubmitInvalid(t *testing.T) {
	svc := newFakeRegistrationService(true)
	h := NewFormHandler(svc, nil, discardLogger())

	values := validValues()
	values.Del("terms_and_conditions")
	values.Set("participants.0.participant_email", "ana")
	values.Set("action", actionSubmit)
	rr := postForm(h, values)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	body := pageText(rr)
	assert.Contains(t, body, "field-error")
	assert.Contains(t, body, `name="submitted" value="1"`)
	assert.Contains(t, body, `value="Mapa Verde"`)
	assert.Empty(t, svc.submitted)
}

func TestFormHandler_SubmitSuccessResetsForm(t *testing.T) {
	svc := newFakeRegistrationService(true)
	h := NewFormHandler(svc, nil, discardLogger())

	values := validValues()
	values.Set("action", actionSubmit)
	rr := postForm(h, values)

	assert.Equal(t, http.StatusCreated, rr.Code)
	body := pageText(rr)
	assert.Contains(t, body, forms.NoticeSubmitted)
	assert.NotContains(t, body, `value="Mapa Verde"`)
	assert.Contains(t, body, `name="submitted" value=""`)
	require.Len(t, svc.submitted, 1)
	assert.True(t, svc.submitted[0].TermsAndConditions)
}

func TestFormHandler_SubmitOutcomes(t *testing.T) {
	tests := []struct {
		name       string
		open       bool
		err        error
		wantStatus int
		wantText   string
	}{
		{"closed", false, nil, http.StatusForbidden, forms.NoticeApplicationsClosed},
		{"duplicate", true, services.ErrRegistrationConflict, http.StatusConflict, duplicateProjectMessage},
		{"failure", true, errors.New("insert failed"), http.StatusInternalServerError, forms.NoticeSubmitFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newFakeRegistrationService(tt.open)
			svc.submitErr = tt.err
			h := NewFormHandler(svc, nil, discardLogger())

			values := validValues()
			values.Set("action", actionSubmit)
			rr := postForm(h, values)

			assert.Equal(t, tt.wantStatus, rr.Code)
			body := pageText(rr)
			assert.Contains(t, body, tt.wantText)
			assert.Contains(t, body, `value="Mapa Verde"`)
			if !tt.open {
				assert.Equal(t, 1, strings.Count(body, forms.NoticeApplicationsClosed))
			}
		})
	}
}

func TestFormHandler_SubmitRateLimited(t *testing.T) {
	svc := newFakeRegistrationService(true)
	l := &stubLimiter{decision: limiter.Decision{Allowed: false, RetryAfter: time.Minute}}
	h := NewFormHandler(svc, l, discardLogger())

	values := validValues()
	values.Set("action", actionSubmit)
	rr := postForm(h, values)

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Contains(t, pageText(rr), forms.NoticeTooManyRequests)
	assert.Empty(t, svc.submitted)

	// Invalid forms and participant edits do not count against the limit.
	values = validValues()
	values.Set("action", actionAddParticipant)
	postForm(h, values)
	values.Set("action", actionSubmit)
	values.Del("project_name")
	postForm(h, values)
	assert.Equal(t, 1, l.calls)
}

func TestFormHandler_SubmitLimiterDownFailsOpen(t *testing.T) {
	svc := newFakeRegistrationService(true)
	h := NewFormHandler(svc, &stubLimiter{err: errors.New("redis down")}, discardLogger())

	values := validValues()
	values.Set("action", actionSubmit)
	assert.Equal(t, http.StatusCreated, postForm(h, values).Code)
	assert.Len(t, svc.submitted, 1)
}
