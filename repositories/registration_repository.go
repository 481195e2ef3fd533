package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/hackathon-registration/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrRegistrationNotFound      = errors.New("registration not found")
	ErrRegistrationConflict      = errors.New("registration conflict: project name already registered")
	ErrRegistrationTermsRequired = errors.New("registration violates terms check: terms_and_conditions must be true")
	ErrRegistrationInvalid       = errors.New("registration violates a table constraint")
)

type RegistrationRepository interface {
	Create(ctx context.Context, r *models.Registration) error
	FindByReference(ctx context.Context, reference uuid.UUID) (*models.Registration, error)
	List(ctx context.Context, limit, offset int) ([]*models.Registration, error)
	Count(ctx context.Context) (int, error)
	DeleteByReference(ctx context.Context, reference uuid.UUID) error
}

type postgresRegistrationRepository struct {
	db *sql.DB
}

func NewPostgresRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &postgresRegistrationRepository{db: db}
}

const registrationColumns = `id, reference, project_name, project_description, project_url, participants, terms_and_conditions, created_at`

func (r *postgresRegistrationRepository) Create(ctx context.Context, reg *models.Registration) error {
	query := `
		INSERT INTO registrations (reference, project_name, project_description, project_url, participants, terms_and_conditions)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		reg.Reference,
		reg.ProjectName,
		reg.ProjectDescription,
		reg.ProjectURL,
		reg.Participants,
		reg.TermsAndConditions,
	).Scan(&reg.ID, &reg.CreatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "registrations_project_name_key" {
					return ErrRegistrationConflict
				}
			case "23514": // check_violation
				if pqErr.Constraint == "registrations_terms_accepted" {
					return ErrRegistrationTermsRequired
				}
				return ErrRegistrationInvalid
			}
		}
		return fmt.Errorf("failed to create registration: %w", err)
	}
	return nil
}

func (r *postgresRegistrationRepository) scanRegistration(rowScanner interface {
	Scan(dest ...interface{}) error
}, reg *models.Registration) error {
	return rowScanner.Scan(
		&reg.ID,
		&reg.Reference,
		&reg.ProjectName,
		&reg.ProjectDescription,
		&reg.ProjectURL,
		&reg.Participants,
		&reg.TermsAndConditions,
		&reg.CreatedAt,
	)
}

func (r *postgresRegistrationRepository) FindByReference(ctx context.Context, reference uuid.UUID) (*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE reference = $1`

	reg := &models.Registration{}
	if err := r.scanRegistration(r.db.QueryRowContext(ctx, query, reference), reg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to find registration: %w", err)
	}
	return reg, nil
}

func (r *postgresRegistrationRepository) List(ctx context.Context, limit, offset int) ([]*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations ORDER BY created_at ASC, id ASC LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	defer rows.Close()

	registrations := make([]*models.Registration, 0)
	for rows.Next() {
		reg := &models.Registration{}
		if err := r.scanRegistration(rows, reg); err != nil {
			return nil, fmt.Errorf("failed to scan registration row: %w", err)
		}
		registrations = append(registrations, reg)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating registration rows: %w", err)
	}
	return registrations, nil
}

func (r *postgresRegistrationRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM registrations`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count registrations: %w", err)
	}
	return total, nil
}

func (r *postgresRegistrationRepository) DeleteByReference(ctx context.Context, reference uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM registrations WHERE reference = $1`, reference)
	if err != nil {
		return fmt.Errorf("failed to delete registration: %w", err)
	}
	return checkAffectedRows(result, ErrRegistrationNotFound)
}
