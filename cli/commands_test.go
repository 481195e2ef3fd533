package cli

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var registrationRowColumns = []string{
	"id", "reference", "project_name", "project_description", "project_url",
	"participants", "terms_and_conditions", "created_at",
}

// testApp returns an App whose database is a sqlmock and whose output is
// captured in the returned buffer.
func testApp(t *testing.T) (*App, sqlmock.Sqlmock, *bytes.Buffer) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)

	out := &bytes.Buffer{}
	app := &App{
		UI: &UI{Out: out, ErrOut: out},
		OpenDB: func(context.Context) (*sql.DB, error) {
			return conn, nil
		},
	}
	return app, mock, out
}

func run(app *App, stdin string, args ...string) error {
	root := NewRootCommand(app)
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(app.UI.Out)
	root.SetErr(app.UI.ErrOut)
	return root.ExecuteContext(context.Background())
}

func sampleRows() *sqlmock.Rows {
	created := time.Date(2026, 10, 1, 12, 30, 0, 0, time.UTC)
	return sqlmock.NewRows(registrationRowColumns).
		AddRow(int64(1), "2b7d3f0e-59c1-4a8e-9f7a-0c6f1b2d3e4f", "Huertos", "Mapa colaborativo", "https://example.com",
			[]byte(`[{"participant_name":"Ana","participant_country":"Chile","participant_email":"ana@example.com"},`+
				`{"participant_name":"Luis","participant_country":"Perú","participant_email":"luis@example.com"}]`),
			true, created)
}

func TestMigrateCommand(t *testing.T) {
	app, mock, out := testApp(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS registrations")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectClose()

	require.NoError(t, run(app, "", "migrate"))
	assert.Contains(t, out.String(), "schema applied")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHashPasswordCommand(t *testing.T) {
	app, _, out := testApp(t)

	require.NoError(t, run(app, "correct horse\n", "hash-password"))

	hash := strings.TrimSpace(out.String())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("correct horse")))
}

func TestHashPasswordCommand_Empty(t *testing.T) {
	app, _, _ := testApp(t)

	err := run(app, "\n", "hash-password")
	assert.ErrorContains(t, err, "must not be empty")
}

func TestListCommand(t *testing.T) {
	app, mock, out := testApp(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM registrations")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at ASC, id ASC LIMIT $1 OFFSET $2")).
		WillReturnRows(sampleRows())
	mock.ExpectClose()

	require.NoError(t, run(app, "", "list", "--limit", "10"))

	text := out.String()
	assert.Contains(t, text, "2b7d3f0e-59c1-4a8e-9f7a-0c6f1b2d3e4f")
	assert.Contains(t, text, "Huertos")
	assert.Contains(t, text, "ana@example.com, luis@example.com")
	assert.Contains(t, text, "2026-10-01 12:30:00")
	assert.Contains(t, text, "showing 1-1 of 1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListCommand_InvalidFlagsDoNotConnect(t *testing.T) {
	app, _, _ := testApp(t)
	opened := false
	app.OpenDB = func(context.Context) (*sql.DB, error) {
		opened = true
		return nil, errors.New("unexpected")
	}

	assert.Error(t, run(app, "", "list", "--limit", "0"))
	assert.Error(t, run(app, "", "list", "--offset", "-3"))
	assert.False(t, opened)
}

func TestExportCommand_ToFile(t *testing.T) {
	app, mock, out := testApp(t)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at ASC, id ASC LIMIT $1 OFFSET $2")).
		WillReturnRows(sampleRows())
	mock.ExpectClose()

	path := filepath.Join(t.TempDir(), "registrations.csv")
	require.NoError(t, run(app, "", "export", "-o", path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "reference,created_at,project_name"))
	assert.Contains(t, lines[1], "ana@example.com")
	assert.Contains(t, lines[2], "luis@example.com")
	assert.Contains(t, out.String(), "exported 1 registrations (2 rows)")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExportCommand_ToStdout(t *testing.T) {
	app, mock, out := testApp(t)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at ASC, id ASC LIMIT $1 OFFSET $2")).
		WillReturnRows(sqlmock.NewRows(registrationRowColumns))
	mock.ExpectClose()

	require.NoError(t, run(app, "", "export"))
	assert.Equal(t, "reference,created_at,project_name,project_description,project_url,"+
		"participant_index,participant_name,participant_country,participant_email\n", out.String())
}
