package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/Dosada05/hackathon-registration/models"
	"github.com/Dosada05/hackathon-registration/repositories"
	"github.com/Dosada05/hackathon-registration/storage"
)

const exportPageSize = 500

var exportHeader = []string{
	"reference", "created_at", "project_name", "project_description", "project_url",
	"participant_index", "participant_name", "participant_country", "participant_email",
}

type ExportResult struct {
	Key           string `json:"key"`
	URL           string `json:"url"`
	Registrations int    `json:"registrations"`
	Rows          int    `json:"rows"`
}

// ExportService writes every registration as CSV, one row per participant.
type ExportService struct {
	repo     repositories.RegistrationRepository
	uploader storage.FileUploader
	logger   *slog.Logger
	now      func() time.Time
}

// NewExportService builds the exporter; uploader may be nil, in which case
// only WriteCSV is available.
func NewExportService(repo repositories.RegistrationRepository, uploader storage.FileUploader, logger *slog.Logger) *ExportService {
	return &ExportService{repo: repo, uploader: uploader, logger: logger, now: time.Now}
}

// WriteCSV streams the export to w and returns how many registrations and
// participant rows were written.
func (s *ExportService) WriteCSV(ctx context.Context, w io.Writer) (registrations, rows int, err error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return 0, 0, fmt.Errorf("failed to write export header: %w", err)
	}

	for offset := 0; ; offset += exportPageSize {
		page, err := s.repo.List(ctx, exportPageSize, offset)
		if err != nil {
			return registrations, rows, err
		}
		for _, reg := range page {
			for i, p := range reg.Participants {
				if err := cw.Write(exportRow(reg, i, p)); err != nil {
					return registrations, rows, fmt.Errorf("failed to write export row: %w", err)
				}
				rows++
			}
			registrations++
		}
		if len(page) < exportPageSize {
			break
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return registrations, rows, fmt.Errorf("failed to flush export: %w", err)
	}
	return registrations, rows, nil
}

// Export uploads a fresh CSV export and returns where to download it.
func (s *ExportService) Export(ctx context.Context) (*ExportResult, error) {
	if s.uploader == nil {
		return nil, ErrExportUnavailable
	}

	var buf bytes.Buffer
	registrations, rows, err := s.WriteCSV(ctx, &buf)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("exports/registrations-%s.csv", s.now().UTC().Format("20060102T150405Z"))
	uploaded, err := s.uploader.Upload(ctx, key, "text/csv; charset=utf-8", &buf)
	if err != nil {
		return nil, err
	}

	s.logger.Info("registrations exported",
		slog.String("key", uploaded.Key),
		slog.Int("registrations", registrations),
		slog.Int("rows", rows),
	)

	return &ExportResult{
		Key:           uploaded.Key,
		URL:           uploaded.Location,
		Registrations: registrations,
		Rows:          rows,
	}, nil
}

func exportRow(reg *models.Registration, index int, p models.Participant) []string {
	return []string{
		reg.Reference.String(),
		reg.CreatedAt.UTC().Format(time.RFC3339),
		reg.ProjectName,
		reg.ProjectDescription,
		reg.ProjectURL,
		strconv.Itoa(index + 1),
		p.Name,
		p.Country,
		p.Email,
	}
}
