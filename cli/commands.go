package cli

import (
	"bufio"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Dosada05/hackathon-registration/db"
	"github.com/Dosada05/hackathon-registration/repositories"
	"github.com/Dosada05/hackathon-registration/services"
	"github.com/spf13/cobra"
)

func newMigrateCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the registrations table if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withDB(cmd.Context(), func(conn *sql.DB) error {
				if err := db.Migrate(cmd.Context(), conn); err != nil {
					return err
				}
				app.UI.Success("schema applied")
				return nil
			})
		},
	}
}

func newHashPasswordCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Print the bcrypt hash to use as ADMIN_PASSWORD_HASH",
		Long:  "Reads the password from the first line of stdin so it stays out of the shell history.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("failed to read password: %w", err)
			}
			password := strings.TrimRight(line, "\r\n")
			if password == "" {
				return errors.New("password must not be empty")
			}

			hash, err := services.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(app.UI.Out, hash)
			return nil
		},
	}
}

func newListCommand(app *App) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive, got %d", limit)
			}
			if offset < 0 {
				return fmt.Errorf("--offset must not be negative, got %d", offset)
			}

			return app.withDB(cmd.Context(), func(conn *sql.DB) error {
				repo := repositories.NewPostgresRegistrationRepository(conn)

				total, err := repo.Count(cmd.Context())
				if err != nil {
					return err
				}
				registrations, err := repo.List(cmd.Context(), limit, offset)
				if err != nil {
					return err
				}
				if len(registrations) == 0 {
					app.UI.Info("no registrations (total %d)", total)
					return nil
				}

				table := app.UI.Table([]string{"Reference", "Project", "Participants", "Emails", "Created"})
				for _, reg := range registrations {
					_ = table.Append([]string{
						reg.Reference.String(),
						reg.ProjectName,
						strconv.Itoa(len(reg.Participants)),
						strings.Join(reg.Participants.Emails(), ", "),
						reg.CreatedAt.UTC().Format(time.DateTime),
					})
				}
				_ = table.Render()

				app.UI.Info("showing %d-%d of %d", offset+1, offset+len(registrations), total)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of registrations to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of registrations to skip")
	return cmd
}

func newExportCommand(app *App) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every registration as CSV, one row per participant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withDB(cmd.Context(), func(conn *sql.DB) error {
				logger := slog.New(slog.NewTextHandler(app.UI.ErrOut, &slog.HandlerOptions{Level: slog.LevelWarn}))
				exporter := services.NewExportService(repositories.NewPostgresRegistrationRepository(conn), nil, logger)

				w := app.UI.Out
				if outputPath != "" && outputPath != "-" {
					f, err := os.Create(outputPath)
					if err != nil {
						return fmt.Errorf("failed to create %s: %w", outputPath, err)
					}
					defer f.Close()
					w = f
				}

				registrations, rows, err := exporter.WriteCSV(cmd.Context(), w)
				if err != nil {
					return err
				}
				if w != app.UI.Out {
					app.UI.Success("exported %d registrations (%d rows) to %s", registrations, rows, outputPath)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file (default stdout)")
	return cmd
}
