package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dosada05/hackathon-registration/forms"
	"github.com/Dosada05/hackathon-registration/models"
	"github.com/Dosada05/hackathon-registration/repositories"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSubmission() forms.RegistrationForm {
	return forms.RegistrationForm{
		ProjectName:        "  Huertos  ",
		ProjectDescription: "Mapa colaborativo de huertos comunitarios",
		ProjectURL:         "https://github.com/example/huertos",
		Participants: []forms.ParticipantForm{
			{Name: "Ana", Country: "Chile", Email: "Ana@Example.com"},
			{Name: "Luis", Country: "Perú", Email: "luis@example.com"},
		},
		TermsAndConditions: true,
	}
}

func newTestRegistrationService(t *testing.T, repo *fakeRegistrationRepo, window RegistrationWindow, pub Publisher, notifier Notifier) *registrationService {
	t.Helper()
	countries, err := forms.DefaultCountries()
	require.NoError(t, err)
	svc := NewRegistrationService(repo, forms.NewSchema(4, countries), countries, window, pub, notifier, discardLogger())
	return svc.(*registrationService)
}

func TestSubmit_ClosedRejectsValidFormWithoutInsert(t *testing.T) {
	repo := &fakeRegistrationRepo{}
	svc := newTestRegistrationService(t, repo, RegistrationWindow{Open: false}, nil, nil)

	_, err := svc.Submit(context.Background(), validSubmission())
	assert.ErrorIs(t, err, ErrRegistrationClosed)
	assert.Empty(t, repo.created)
}

func TestSubmit_InvalidFormNeverReachesRepository(t *testing.T) {
	for _, open := range []bool{true, false} {
		repo := &fakeRegistrationRepo{}
		svc := newTestRegistrationService(t, repo, RegistrationWindow{Open: open}, nil, nil)

		form := validSubmission()
		form.TermsAndConditions = false
		_, err := svc.Submit(context.Background(), form)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.ErrorIs(t, err, ErrValidationFailed)
		assert.Contains(t, verr.Fields, "terms_and_conditions")
		assert.Empty(t, repo.created)
	}
}

func TestSubmit_OpenStoresNormalizedRegistration(t *testing.T) {
	repo := &fakeRegistrationRepo{}
	pub := &recordingPublisher{}
	notifier := &channelNotifier{sent: make(chan *models.Registration, 1)}
	svc := newTestRegistrationService(t, repo, RegistrationWindow{Open: true}, pub, notifier)

	reg, err := svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)

	require.Len(t, repo.created, 1)
	assert.Equal(t, int64(1), reg.ID)
	assert.NotEqual(t, uuid.Nil, reg.Reference)
	assert.Equal(t, "Huertos", reg.ProjectName)
	assert.Equal(t, []string{"ana@example.com", "luis@example.com"}, reg.Participants.Emails())

	require.Len(t, pub.events, 1)
	assert.Equal(t, "registration.created", pub.events[0].Type)
	assert.Equal(t, 1, pub.events[0].Total)

	select {
	case sent := <-notifier.sent:
		assert.Equal(t, reg.Reference, sent.Reference)
	case <-time.After(2 * time.Second):
		t.Fatal("confirmation was not sent")
	}
}

func TestSubmit_DeadlineClosesWindow(t *testing.T) {
	deadline := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeRegistrationRepo{}
	svc := newTestRegistrationService(t, repo, RegistrationWindow{Open: true, Deadline: &deadline}, nil, nil)

	svc.now = func() time.Time { return deadline.Add(-time.Minute) }
	_, err := svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)
	assert.True(t, svc.FormDefinition().Open)

	svc.now = func() time.Time { return deadline }
	form := validSubmission()
	form.ProjectName = "Otro proyecto"
	_, err = svc.Submit(context.Background(), form)
	assert.ErrorIs(t, err, ErrRegistrationClosed)
	assert.False(t, svc.FormDefinition().Open)
}

func TestSubmit_MapsRepositoryErrors(t *testing.T) {
	tests := []struct {
		name    string
		repoErr error
		check   func(t *testing.T, err error)
	}{
		{"duplicate project", repositories.ErrRegistrationConflict, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrRegistrationConflict)
		}},
		{"terms check", repositories.ErrRegistrationTermsRequired, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrValidationFailed)
		}},
		{"unexpected", errors.New("connection reset"), func(t *testing.T, err error) {
			assert.ErrorContains(t, err, "failed to store registration")
			assert.NotErrorIs(t, err, ErrValidationFailed)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRegistrationRepo{createErr: tt.repoErr}
			svc := newTestRegistrationService(t, repo, RegistrationWindow{Open: true}, nil, nil)

			_, err := svc.Submit(context.Background(), validSubmission())
			tt.check(t, err)
		})
	}
}

func TestFormDefinition(t *testing.T) {
	svc := newTestRegistrationService(t, &fakeRegistrationRepo{}, RegistrationWindow{}, nil, nil)

	def := svc.FormDefinition()
	assert.Equal(t, forms.DefaultRegistrationForm(), def.Defaults)
	assert.Equal(t, 4, def.MaxParticipants)
	assert.NotEmpty(t, def.Countries)
	assert.False(t, def.Open)
}

func TestListGetWithdraw(t *testing.T) {
	repo := &fakeRegistrationRepo{}
	svc := newTestRegistrationService(t, repo, RegistrationWindow{Open: true}, nil, nil)

	reg, err := svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)

	page, err := svc.List(context.Background(), ListParams{Limit: 10000, Offset: -3})
	require.NoError(t, err)
	assert.Equal(t, maxPageSize, page.Limit)
	assert.Equal(t, 0, page.Offset)
	assert.Equal(t, 1, page.Total)

	got, err := svc.Get(context.Background(), reg.Reference)
	require.NoError(t, err)
	assert.Equal(t, reg, got)

	require.NoError(t, svc.Withdraw(context.Background(), reg.Reference))
	_, err = svc.Get(context.Background(), reg.Reference)
	assert.ErrorIs(t, err, ErrRegistrationNotFound)
	assert.ErrorIs(t, svc.Withdraw(context.Background(), reg.Reference), ErrRegistrationNotFound)
}
