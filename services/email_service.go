package services

import (
	"bytes"
	"context"
	"crypto/tls"
	"embed"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/Dosada05/hackathon-registration/config"
	"github.com/Dosada05/hackathon-registration/models"
	"golang.org/x/sync/errgroup"
)

//go:embed templates/*.html
var emailTemplates embed.FS

const confirmationConcurrency = 4

type EmailService struct {
	cfg       *config.Config
	templates *template.Template
	send      func(to []string, subject, body string) error
}

func NewEmailService(cfg *config.Config) (*EmailService, error) {
	tmpl, err := template.ParseFS(emailTemplates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга шаблонов писем: %w", err)
	}
	s := &EmailService{cfg: cfg, templates: tmpl}
	s.send = s.SendEmail
	return s, nil
}

func (s *EmailService) SendEmail(to []string, subject string, body string) error {
	msg := []byte("To: " + to[0] + "\r\n" +
		"From: " + s.cfg.SMTPFrom + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\r\nContent-Type: text/html; charset=\"UTF-8\";\r\n" +
		"\r\n" +
		body + "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)
	tlsconfig := &tls.Config{ServerName: s.cfg.SMTPHost}

	var client *smtp.Client
	if s.cfg.SMTPPort == 465 {
		conn, err := tls.Dial("tcp", addr, tlsconfig)
		if err != nil {
			return fmt.Errorf("ошибка TLS соединения: %w", err)
		}
		defer conn.Close()
		client, err = smtp.NewClient(conn, s.cfg.SMTPHost)
		if err != nil {
			return fmt.Errorf("ошибка создания SMTP клиента: %w", err)
		}
	} else {
		c, err := smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("ошибка соединения SMTP: %w", err)
		}
		client = c
		if err = client.StartTLS(tlsconfig); err != nil {
			client.Close()
			return fmt.Errorf("ошибка команды STARTTLS: %w", err)
		}
	}
	defer client.Quit()

	if s.cfg.SMTPUser != "" {
		auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("ошибка аутентификации SMTP: %w", err)
		}
	}

	if err := client.Mail(s.cfg.SMTPFrom); err != nil {
		return fmt.Errorf("ошибка MAIL FROM: %w", err)
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			return fmt.Errorf("ошибка RCPT TO: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("ошибка команды DATA: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("ошибка записи сообщения: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия DATA: %w", err)
	}

	return nil
}

func (s *EmailService) GenerateEmailBody(name string, data interface{}) (string, error) {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, name, data); err != nil {
		return "", fmt.Errorf("ошибка выполнения шаблона %s: %w", name, err)
	}
	return body.String(), nil
}

// SendRegistrationConfirmation mails every participant of reg. Messages go
// out concurrently; the first failure is returned once all sends finish.
func (s *EmailService) SendRegistrationConfirmation(ctx context.Context, reg *models.Registration) error {
	subject := fmt.Sprintf("Registro recibido: %s", reg.ProjectName)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(confirmationConcurrency)

	for _, participant := range reg.Participants {
		participant := participant
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			body, err := s.GenerateEmailBody("registration_confirmation.html", struct {
				ParticipantName string
				ProjectName     string
				Participants    models.Participants
				Reference       string
			}{
				ParticipantName: participant.Name,
				ProjectName:     reg.ProjectName,
				Participants:    reg.Participants,
				Reference:       reg.Reference.String(),
			})
			if err != nil {
				return err
			}
			if err := s.send([]string{participant.Email}, subject, body); err != nil {
				return fmt.Errorf("ошибка отправки подтверждения %s: %w", participant.Email, err)
			}
			return nil
		})
	}

	return g.Wait()
}
