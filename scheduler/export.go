// Package scheduler runs the periodic CSV export of registrations.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/hackathon-registration/services"
	"github.com/robfig/cron/v3"
)

const exportTimeout = 5 * time.Minute

type Exporter interface {
	Export(ctx context.Context) (*services.ExportResult, error)
}

// ExportScheduler uploads a fresh export on a cron schedule (UTC). A run
// that is still going when the next one is due makes the next one skip.
type ExportScheduler struct {
	cron     *cron.Cron
	exporter Exporter
	logger   *slog.Logger
}

func NewExportScheduler(spec string, exporter Exporter, logger *slog.Logger) (*ExportScheduler, error) {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelWarn))
	s := &ExportScheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		exporter: exporter,
		logger:   logger,
	}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("invalid export schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *ExportScheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for a running export until ctx is done.
func (s *ExportScheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *ExportScheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
	defer cancel()

	start := time.Now()
	result, err := s.exporter.Export(ctx)
	if err != nil {
		s.logger.Error("scheduled export failed", slog.Any("error", err))
		return
	}
	s.logger.Info("scheduled export completed",
		slog.String("url", result.URL),
		slog.Int("registrations", result.Registrations),
		slog.Duration("duration", time.Since(start)),
	)
}
