package services

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/Dosada05/hackathon-registration/models"
	"github.com/Dosada05/hackathon-registration/repositories"
	"github.com/Dosada05/hackathon-registration/storage"
	"github.com/google/uuid"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeRegistrationRepo struct {
	mu        sync.Mutex
	created   []*models.Registration
	createErr error
	listErr   error
	nextID    int64
}

var _ repositories.RegistrationRepository = (*fakeRegistrationRepo)(nil)

func (r *fakeRegistrationRepo) Create(_ context.Context, reg *models.Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	reg.ID = r.nextID
	r.created = append(r.created, reg)
	return nil
}

func (r *fakeRegistrationRepo) FindByReference(_ context.Context, reference uuid.UUID) (*models.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reg := range r.created {
		if reg.Reference == reference {
			return reg, nil
		}
	}
	return nil, repositories.ErrRegistrationNotFound
}

func (r *fakeRegistrationRepo) List(_ context.Context, limit, offset int) ([]*models.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	if offset >= len(r.created) {
		return []*models.Registration{}, nil
	}
	end := offset + limit
	if end > len(r.created) {
		end = len(r.created)
	}
	return r.created[offset:end], nil
}

func (r *fakeRegistrationRepo) Count(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.created), nil
}

func (r *fakeRegistrationRepo) DeleteByReference(_ context.Context, reference uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, reg := range r.created {
		if reg.Reference == reference {
			r.created = append(r.created[:i], r.created[i+1:]...)
			return nil
		}
	}
	return repositories.ErrRegistrationNotFound
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.RegistrationEvent
}

func (p *recordingPublisher) Publish(event models.RegistrationEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

type channelNotifier struct {
	sent chan *models.Registration
}

func (n *channelNotifier) SendRegistrationConfirmation(_ context.Context, reg *models.Registration) error {
	n.sent <- reg
	return nil
}

type memoryUploader struct {
	key         string
	contentType string
	body        bytes.Buffer
}

var _ storage.FileUploader = (*memoryUploader)(nil)

func (u *memoryUploader) Upload(_ context.Context, key, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	u.key = key
	u.contentType = contentType
	if _, err := io.Copy(&u.body, reader); err != nil {
		return nil, err
	}
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *memoryUploader) GetPublicURL(key string) string {
	return "https://files.example.com/" + key
}
