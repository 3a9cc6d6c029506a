// internal/services/notification_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/certportal-backend/internal/config"
	"github.com/javajoker/certportal-backend/internal/models"
)

type NotificationService struct {
	email     config.EmailConfig
	portalURL string
	templates map[string]*template.Template
	sendMail  func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

type EmailTemplate struct {
	Subject string
	Body    string
}

var emailTemplates = map[models.CertificateStatus]EmailTemplate{
	models.CertificateStatusApproved: {
		Subject: "Your %s application has been approved",
		Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Application Approved</h2>
	<p>Hello {{.ApplicantName}},</p>
	<p>Your application for a <strong>{{.CertificateType}}</strong> ({{.Subdivision}}) submitted on {{.ApplicationDate}} has been approved.</p>
	{{if .Remarks}}<p>Remarks: {{.Remarks}}</p>{{end}}
	<a href="{{.ApplicationURL}}">View Application</a>
	<p>Regards,<br>{{.FromName}}</p>
</body>
</html>`,
	},
	models.CertificateStatusRejected: {
		Subject: "Your %s application has been rejected",
		Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Application Rejected</h2>
	<p>Hello {{.ApplicantName}},</p>
	<p>Your application for a <strong>{{.CertificateType}}</strong> ({{.Subdivision}}) submitted on {{.ApplicationDate}} was rejected.</p>
	<p>Reason: {{.Remarks}}</p>
	<a href="{{.ApplicationURL}}">View Application</a>
	<p>Regards,<br>{{.FromName}}</p>
</body>
</html>`,
	},
}

func NewNotificationService(email config.EmailConfig, portalURL string) (*NotificationService, error) {
	templates := make(map[string]*template.Template, len(emailTemplates))
	for status, tmpl := range emailTemplates {
		parsed, err := template.New(string(status)).Parse(tmpl.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s email template: %w", status, err)
		}
		templates[string(status)] = parsed
	}

	return &NotificationService{
		email:     email,
		portalURL: portalURL,
		templates: templates,
		sendMail:  smtp.SendMail,
	}, nil
}

// NotifyDecision emails the applicant about an approved or rejected
// application.
func (s *NotificationService) NotifyDecision(ctx context.Context, certificate *models.Certificate) error {
	if certificate.Applicant == nil || certificate.Applicant.Email == "" {
		return fmt.Errorf("certificate %s has no applicant email", certificate.ID)
	}

	tmpl, ok := s.templates[string(certificate.Status)]
	if !ok {
		return fmt.Errorf("no email template for status %s", certificate.Status)
	}

	data := map[string]interface{}{
		"ApplicantName":   certificate.Applicant.Name,
		"CertificateType": certificate.CertificateType,
		"Subdivision":     certificate.Subdivision,
		"ApplicationDate": certificate.ApplicationDate.Format("02 Jan 2006"),
		"Remarks":         certificate.AdminRemarks,
		"ApplicationURL":  fmt.Sprintf("%s/certificates/%s", s.portalURL, certificate.ID),
		"FromName":        s.email.FromName,
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	subject := fmt.Sprintf(emailTemplates[certificate.Status].Subject, certificate.CertificateType)
	return s.sendEmail(ctx, certificate.Applicant.Email, subject, body.String())
}

// Helper methods
func (s *NotificationService) sendEmail(ctx context.Context, to, subject, body string) error {
	if !s.email.Enabled || s.email.SMTPHost == "" {
		// Email not configured, just log
		logrus.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("Email delivery disabled, skipping")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if s.email.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.email.SMTPUsername, s.email.SMTPPassword, s.email.SMTPHost)
	}

	from := s.email.FromEmail
	if s.email.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.email.FromName, s.email.FromEmail)
	}
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		from, to, subject, body))

	addr := fmt.Sprintf("%s:%s", s.email.SMTPHost, s.email.SMTPPort)
	return s.sendMail(addr, auth, s.email.FromEmail, []string{to}, msg)
}
