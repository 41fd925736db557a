package services

import (
	"errors"
	"fmt"
	"html"
	"police_case_app_go/config"
	"strings"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
)

// ErrMailerNotConfigured is returned when live delivery has no API key
var ErrMailerNotConfigured = errors.New("mailer not configured: RESEND_API_KEY missing")

// Email is one outgoing message; at least one body is required
type Email struct {
	To       []string
	Subject  string
	HTMLBody string
	TextBody string
}

// Mailer sends email through Resend. In test mode it only logs.
type Mailer struct {
	from     string
	testMode bool
	client   *resend.Client
	logger   zerolog.Logger
}

func NewMailer(cfg *config.Config, logger zerolog.Logger) *Mailer {
	m := &Mailer{
		from:     fmt.Sprintf("%s <%s>", cfg.EmailFromName, cfg.EmailFrom),
		testMode: cfg.EmailTestMode,
		logger:   logger,
	}
	if cfg.ResendAPIKey != "" {
		m.client = resend.NewClient(cfg.ResendAPIKey)
	}
	return m
}

// Send delivers email
func (m *Mailer) Send(email *Email) error {
	if email.HTMLBody == "" && email.TextBody == "" {
		return fmt.Errorf("%w: email without body", ErrInvalidInput)
	}
	if m.testMode {
		m.logger.Info().
			Strs("to", email.To).
			Str("subject", email.Subject).
			Str("text", truncate(email.TextBody, 500)).
			Msg("email logged (test mode, not sent)")
		return nil
	}
	if m.client == nil {
		return ErrMailerNotConfigured
	}

	sent, err := m.client.Emails.Send(&resend.SendEmailRequest{
		From:    m.from,
		To:      email.To,
		Subject: email.Subject,
		Html:    email.HTMLBody,
		Text:    email.TextBody,
	})
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	m.logger.Info().Str("email_id", sent.Id).Strs("to", email.To).Msg("email sent")
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}

// caseNoticeEmail renders a workflow notice for its recipient. The link
// points at the case page under appURL when the notice names a case.
func caseNoticeEmail(to, recipient string, notice Notice, appURL string) *Email {
	var link string
	if notice.CaseID != "" {
		link = strings.TrimRight(appURL, "/") + "/cases/" + notice.CaseID
	}

	text := fmt.Sprintf("Hello %s,\n\n%s\n", recipient, notice.Message)
	body := fmt.Sprintf("<p>Hello %s,</p><p>%s</p>", html.EscapeString(recipient), html.EscapeString(notice.Message))
	if link != "" {
		text += "\nOpen the case: " + link + "\n"
		body += fmt.Sprintf(`<p><a href="%s">Open the case</a></p>`, html.EscapeString(link))
	}

	return &Email{To: []string{to}, Subject: notice.Title, HTMLBody: body, TextBody: text}
}
