package services

import (
	"fmt"
	"html"
	"net/smtp"

	"github.com/dimitrije/dfsim-api/internal/config"
)

type EmailService struct {
	cfg     config.SMTPConfig
	baseURL string
}

func NewEmailService(cfg config.SMTPConfig, baseURL string) *EmailService {
	return &EmailService{cfg: cfg, baseURL: baseURL}
}

func (s *EmailService) IsConfigured() bool {
	return s.cfg.Host != "" && s.cfg.Username != "" && s.cfg.Password != "" && s.cfg.From != ""
}

func (s *EmailService) Send(to, subject, body string) error {
	if !s.IsConfigured() {
		return nil
	}

	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)

	return smtp.SendMail(addr, auth, s.cfg.From, []string{to}, s.message(to, subject, body))
}

func (s *EmailService) message(to, subject, body string) []byte {
	return []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		s.cfg.From, to, subject, body))
}

// SendApprovalRequest tells a team leader that a change waits for their decision.
func (s *EmailService) SendApprovalRequest(to, teamName, summary, fileURL string) error {
	subject := fmt.Sprintf("Approval needed in %s", teamName)
	return s.Send(to, subject, approvalBody(teamName, summary, fileURL))
}

func (s *EmailService) FileURL(fileID string) string {
	return fmt.Sprintf("%s/files/%s/view", s.baseURL, fileID)
}

func approvalBody(teamName, summary, fileURL string) string {
	return fmt.Sprintf(`
		<html>
		<body>
			<h2>Approval required</h2>
			<p>Hi,</p>
			<p>%s</p>
			<p>Team: <strong>%s</strong></p>
			<p><a href="%s">Review the file</a></p>
		</body>
		</html>
	`, html.EscapeString(summary), html.EscapeString(teamName), fileURL)
}
