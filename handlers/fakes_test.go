package handlers

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Dosada05/hackathon-registration/forms"
	"github.com/Dosada05/hackathon-registration/limiter"
	"github.com/Dosada05/hackathon-registration/models"
	"github.com/Dosada05/hackathon-registration/services"
	"github.com/google/uuid"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testCountries = forms.Countries{
	{Code: "MX", Name: "México"},
	{Code: "AR", Name: "Argentina"},
}

func validForm() forms.RegistrationForm {
	return forms.RegistrationForm{
		ProjectName:        "Mapa Verde",
		ProjectDescription: "Un mapa colaborativo de huertos urbanos.",
		ProjectURL:         "https://github.com/example/mapa-verde",
		Participants: []forms.ParticipantForm{
			{Name: "Ana", Country: "México", Email: "ana@example.com"},
		},
		TermsAndConditions: true,
	}
}

// fakeRegistrationService validates with the real schema and keeps
// registrations in memory.
type fakeRegistrationService struct {
	mu          sync.Mutex
	schema      *forms.Schema
	open        bool
	submitErr   error
	submitted   []forms.RegistrationForm
	stored      map[uuid.UUID]*models.Registration
	withdrawErr error
	lastList    services.ListParams
}

var _ services.RegistrationService = (*fakeRegistrationService)(nil)

func newFakeRegistrationService(open bool) *fakeRegistrationService {
	return &fakeRegistrationService{
		schema: forms.NewSchema(3, testCountries),
		open:   open,
		stored: map[uuid.UUID]*models.Registration{},
	}
}

func (s *fakeRegistrationService) Schema() *forms.Schema { return s.schema }

func (s *fakeRegistrationService) FormDefinition() services.FormDefinition {
	return services.FormDefinition{
		Defaults:        forms.DefaultRegistrationForm(),
		MaxParticipants: s.schema.MaxParticipants,
		Countries:       testCountries,
		Open:            s.open,
	}
}

func (s *fakeRegistrationService) Validate(form forms.RegistrationForm) error {
	if errs := s.schema.Validate(form); errs != nil {
		return &services.ValidationError{Fields: errs}
	}
	return nil
}

func (s *fakeRegistrationService) Submit(_ context.Context, form forms.RegistrationForm) (*models.Registration, error) {
	if err := s.Validate(form); err != nil {
		return nil, err
	}
	if !s.open {
		return nil, services.ErrRegistrationClosed
	}
	if s.submitErr != nil {
		return nil, s.submitErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitted = append(s.submitted, form)
	reg := &models.Registration{
		ID:                 int64(len(s.submitted)),
		Reference:          uuid.New(),
		ProjectName:        form.ProjectName,
		ProjectDescription: form.ProjectDescription,
		ProjectURL:         form.ProjectURL,
		TermsAndConditions: form.TermsAndConditions,
		CreatedAt:          time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
	}
	for _, p := range form.Participants {
		reg.Participants = append(reg.Participants, models.Participant{Name: p.Name, Country: p.Country, Email: p.Email})
	}
	s.stored[reg.Reference] = reg
	return reg, nil
}

func (s *fakeRegistrationService) Get(_ context.Context, reference uuid.UUID) (*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.stored[reference]
	if !ok {
		return nil, services.ErrRegistrationNotFound
	}
	return reg, nil
}

func (s *fakeRegistrationService) List(_ context.Context, params services.ListParams) (*services.RegistrationPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastList = params
	page := &services.RegistrationPage{Limit: params.Limit, Offset: params.Offset, Total: len(s.stored)}
	for _, reg := range s.stored {
		page.Registrations = append(page.Registrations, reg)
	}
	return page, nil
}

func (s *fakeRegistrationService) Withdraw(_ context.Context, reference uuid.UUID) error {
	if s.withdrawErr != nil {
		return s.withdrawErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.stored[reference]; !ok {
		return services.ErrRegistrationNotFound
	}
	delete(s.stored, reference)
	return nil
}

type stubLimiter struct {
	decision limiter.Decision
	err      error
	calls    int
}

func (l *stubLimiter) Allow(context.Context, string) (limiter.Decision, error) {
	l.calls++
	return l.decision, l.err
}

type stubAuthService struct {
	organizer *models.Organizer
	err       error
}

func (s stubAuthService) Login(context.Context, services.LoginInput) (*models.Organizer, error) {
	return s.organizer, s.err
}
