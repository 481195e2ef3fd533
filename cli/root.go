// Package cli implements regctl, the organizers' command line tool.
package cli

import (
	"context"
	"database/sql"
	"time"

	"github.com/Dosada05/hackathon-registration/config"
	"github.com/Dosada05/hackathon-registration/db"
	"github.com/spf13/cobra"
)

// App holds what the commands share. OpenDB is replaced in tests.
type App struct {
	UI     *UI
	OpenDB func(ctx context.Context) (*sql.DB, error)
}

// NewApp connects through DATABASE_URL, read the same way the server reads it.
func NewApp() *App {
	return &App{
		UI: NewUI(),
		OpenDB: func(ctx context.Context) (*sql.DB, error) {
			cfg, err := config.Load()
			if err != nil {
				return nil, err
			}
			return db.Connect(cfg.DatabaseURL, 5*time.Second)
		},
	}
}

func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "regctl",
		Short: "Manage hackathon registrations",
		Long: `regctl applies the database schema, prepares organizer credentials
and reads the registrations collected by the registration form.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			app.UI.Out = cmd.OutOrStdout()
			app.UI.ErrOut = cmd.ErrOrStderr()
		},
	}

	root.PersistentFlags().BoolVarP(&app.UI.Verbose, "verbose", "v", false, "Verbose output")

	root.AddCommand(
		newMigrateCommand(app),
		newHashPasswordCommand(app),
		newListCommand(app),
		newExportCommand(app),
	)
	return root
}

// withDB opens the database for the duration of fn.
func (a *App) withDB(ctx context.Context, fn func(conn *sql.DB) error) error {
	conn, err := a.OpenDB(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	a.UI.VerboseLog("database connection established")
	return fn(conn)
}
