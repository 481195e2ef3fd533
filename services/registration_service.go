package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/hackathon-registration/forms"
	"github.com/Dosada05/hackathon-registration/models"
	"github.com/Dosada05/hackathon-registration/repositories"
	"github.com/google/uuid"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
	notifyTimeout   = 30 * time.Second
)

// Publisher receives an event for every stored registration.
type Publisher interface {
	Publish(event models.RegistrationEvent)
}

// Notifier confirms a stored registration to its participants.
type Notifier interface {
	SendRegistrationConfirmation(ctx context.Context, reg *models.Registration) error
}

// RegistrationWindow decides whether submissions are accepted.
type RegistrationWindow struct {
	Open     bool
	Deadline *time.Time
}

func (w RegistrationWindow) IsOpen(now time.Time) bool {
	if !w.Open {
		return false
	}
	return w.Deadline == nil || now.Before(*w.Deadline)
}

// FormDefinition is what a client needs to render an empty form.
type FormDefinition struct {
	Defaults        forms.RegistrationForm `json:"defaults"`
	MaxParticipants int                    `json:"max_participants"`
	Countries       forms.Countries        `json:"countries"`
	Open            bool                   `json:"open"`
	Deadline        *time.Time             `json:"deadline,omitempty"`
}

type ListParams struct {
	Limit  int
	Offset int
}

type RegistrationPage struct {
	Registrations []*models.Registration `json:"registrations"`
	Total         int                    `json:"total"`
	Limit         int                    `json:"limit"`
	Offset        int                    `json:"offset"`
}

type RegistrationService interface {
	Schema() *forms.Schema
	FormDefinition() FormDefinition
	Validate(form forms.RegistrationForm) error
	Submit(ctx context.Context, form forms.RegistrationForm) (*models.Registration, error)
	Get(ctx context.Context, reference uuid.UUID) (*models.Registration, error)
	List(ctx context.Context, params ListParams) (*RegistrationPage, error)
	Withdraw(ctx context.Context, reference uuid.UUID) error
}

type registrationService struct {
	repo      repositories.RegistrationRepository
	schema    *forms.Schema
	countries forms.Countries
	window    RegistrationWindow
	publisher Publisher
	notifier  Notifier
	logger    *slog.Logger
	now       func() time.Time
}

// NewRegistrationService wires the submit flow. publisher and notifier may be
// nil when the live feed or email are not configured.
func NewRegistrationService(
	repo repositories.RegistrationRepository,
	schema *forms.Schema,
	countries forms.Countries,
	window RegistrationWindow,
	publisher Publisher,
	notifier Notifier,
	logger *slog.Logger,
) RegistrationService {
	return &registrationService{
		repo:      repo,
		schema:    schema,
		countries: countries,
		window:    window,
		publisher: publisher,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *registrationService) Schema() *forms.Schema {
	return s.schema
}

func (s *registrationService) FormDefinition() FormDefinition {
	return FormDefinition{
		Defaults:        forms.DefaultRegistrationForm(),
		MaxParticipants: s.schema.MaxParticipants,
		Countries:       s.countries,
		Open:            s.window.IsOpen(s.now()),
		Deadline:        s.window.Deadline,
	}
}

func (s *registrationService) Validate(form forms.RegistrationForm) error {
	if errs := s.schema.Validate(form); errs != nil {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// Submit validates the form and, while registration is open, inserts it.
// Invalid forms never reach the table, and neither do valid forms submitted
// while registration is closed.
func (s *registrationService) Submit(ctx context.Context, form forms.RegistrationForm) (*models.Registration, error) {
	if err := s.Validate(form); err != nil {
		return nil, err
	}
	if !s.window.IsOpen(s.now()) {
		return nil, ErrRegistrationClosed
	}

	reg := newRegistration(form.Normalize())
	if err := s.repo.Create(ctx, reg); err != nil {
		switch {
		case errors.Is(err, repositories.ErrRegistrationConflict):
			return nil, ErrRegistrationConflict
		case errors.Is(err, repositories.ErrRegistrationTermsRequired):
			return nil, &ValidationError{Fields: forms.FieldErrors{
				"terms_and_conditions": "Debes aceptar los términos y condiciones",
			}}
		default:
			return nil, fmt.Errorf("failed to store registration: %w", err)
		}
	}

	s.logger.Info("registration stored",
		slog.Int64("id", reg.ID),
		slog.String("reference", reg.Reference.String()),
		slog.Int("participants", len(reg.Participants)),
	)

	s.publish(ctx, reg)
	s.notify(ctx, reg)

	return reg, nil
}

func (s *registrationService) Get(ctx context.Context, reference uuid.UUID) (*models.Registration, error) {
	reg, err := s.repo.FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}
	return reg, nil
}

func (s *registrationService) List(ctx context.Context, params ListParams) (*RegistrationPage, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	registrations, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}

	return &RegistrationPage{
		Registrations: registrations,
		Total:         total,
		Limit:         limit,
		Offset:        offset,
	}, nil
}

func (s *registrationService) Withdraw(ctx context.Context, reference uuid.UUID) error {
	if err := s.repo.DeleteByReference(ctx, reference); err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return ErrRegistrationNotFound
		}
		return err
	}
	s.logger.Info("registration withdrawn", slog.String("reference", reference.String()))
	return nil
}

func (s *registrationService) publish(ctx context.Context, reg *models.Registration) {
	if s.publisher == nil {
		return
	}
	event := models.RegistrationEvent{Type: models.EventRegistrationCreated, Registration: reg}
	total, err := s.repo.Count(ctx)
	if err != nil {
		s.logger.Warn("failed to count registrations for live feed", slog.Any("error", err))
	} else {
		event.Total = total
	}
	s.publisher.Publish(event)
}

func (s *registrationService) notify(ctx context.Context, reg *models.Registration) {
	if s.notifier == nil {
		return
	}
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	go func() {
		defer cancel()
		if err := s.notifier.SendRegistrationConfirmation(notifyCtx, reg); err != nil {
			s.logger.Error("failed to send registration confirmation",
				slog.String("reference", reg.Reference.String()),
				slog.Any("error", err),
			)
		}
	}()
}

func newRegistration(form forms.RegistrationForm) *models.Registration {
	participants := make(models.Participants, 0, len(form.Participants))
	for _, p := range form.Participants {
		participants = append(participants, models.Participant{
			Name:    p.Name,
			Country: p.Country,
			Email:   p.Email,
		})
	}
	return &models.Registration{
		Reference:          uuid.New(),
		ProjectName:        form.ProjectName,
		ProjectDescription: form.ProjectDescription,
		ProjectURL:         form.ProjectURL,
		Participants:       participants,
		TermsAndConditions: form.TermsAndConditions,
	}
}
