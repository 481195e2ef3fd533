package scheduler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Dosada05/hackathon-registration/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingExporter struct {
	calls atomic.Int32
	err   error
}

func (e *countingExporter) Export(context.Context) (*services.ExportResult, error) {
	e.calls.Add(1)
	if e.err != nil {
		return nil, e.err
	}
	return &services.ExportResult{Key: "exports/x.csv", URL: "https://files.example/exports/x.csv", Registrations: 2, Rows: 3}, nil
}

func TestNewExportScheduler_InvalidSpec(t *testing.T) {
	_, err := NewExportScheduler("every tuesday", &countingExporter{}, slog.Default())
	assert.ErrorContains(t, err, "invalid export schedule")
}

func TestExportScheduler_RunLogsOutcome(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	ok := &countingExporter{}
	s, err := NewExportScheduler("0 3 * * *", ok, logger)
	require.NoError(t, err)
	s.run()
	assert.EqualValues(t, 1, ok.calls.Load())
	assert.Contains(t, logs.String(), "scheduled export completed")
	assert.Contains(t, logs.String(), "https://files.example/exports/x.csv")

	failing := &countingExporter{err: errors.New("bucket gone")}
	s, err = NewExportScheduler("0 3 * * *", failing, logger)
	require.NoError(t, err)
	s.run()
	assert.Contains(t, logs.String(), "scheduled export failed")
	assert.Contains(t, logs.String(), "bucket gone")
}

func TestExportScheduler_StartStop(t *testing.T) {
	e := &countingExporter{}
	s, err := NewExportScheduler("@every 10ms", e, slog.Default())
	require.NoError(t, err)

	s.Start()
	assert.Eventually(t, func() bool { return e.calls.Load() > 0 }, 3*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}
