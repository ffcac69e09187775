package email

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/smtp"
)

// ErrDisabled is returned when no SMTP host is configured.
var ErrDisabled = errors.New("email: smtp not configured")

// EmailConfig holds SMTP configuration
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	FromName     string
	FromEmail    string
}

// PaymentConfirmation is the data rendered into a payment confirmation email.
// Amounts are preformatted.
type PaymentConfirmation struct {
	CustomerName string
	InvoiceNo    string
	Method       string
	Total        string
	PaidAt       string
	Lines        []PaymentConfirmationLine
}

type PaymentConfirmationLine struct {
	Name     string
	Quantity int
	Total    string
}

// EmailService handles email sending
type EmailService struct {
	config EmailConfig
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	tmpl   *template.Template
}

// NewEmailService creates a new email service
func NewEmailService(config EmailConfig) *EmailService {
	return &EmailService{
		config: config,
		send:   smtp.SendMail,
		tmpl:   template.Must(template.New("payment_confirmation").Parse(paymentConfirmationTemplate)),
	}
}

// Enabled reports whether an SMTP host is configured.
func (s *EmailService) Enabled() bool {
	return s.config.SMTPHost != ""
}

// SendPaymentConfirmation emails the customer that a digital payment settled.
func (s *EmailService) SendPaymentConfirmation(to string, data PaymentConfirmation) error {
	if !s.Enabled() {
		return ErrDisabled
	}

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, struct {
		PaymentConfirmation
		AppName string
	}{data, s.config.FromName}); err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	subject := fmt.Sprintf("Pembayaran diterima - %s", data.InvoiceNo)
	return s.sendEmail(to, s.buildHTMLEmail(to, subject, buf.String()))
}

// sendEmail sends an email using SMTP
func (s *EmailService) sendEmail(to string, message []byte) error {
	addr := s.config.SMTPHost + ":" + s.config.SMTPPort

	var auth smtp.Auth
	if s.config.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)
	}

	if err := s.send(addr, auth, s.config.FromEmail, []string{to}, message); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// buildHTMLEmail builds an HTML email message
func (s *EmailService) buildHTMLEmail(to, subject, htmlBody string) []byte {
	headers := fmt.Sprintf(
		"From: %s <%s>\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=\"UTF-8\"\r\n"+
			"\r\n",
		s.config.FromName,
		s.config.FromEmail,
		to,
		subject,
	)

	return []byte(headers + htmlBody)
}

const paymentConfirmationTemplate = `<!DOCTYPE html>
<html lang="id">
<head><meta charset="UTF-8"><title>Pembayaran diterima</title></head>
<body style="margin:0;padding:24px;font-family:Tahoma,Verdana,sans-serif;background-color:#f6f1eb;">
  <table role="presentation" style="max-width:480px;margin:0 auto;background:#ffffff;border-radius:8px;padding:24px;">
    <tr><td>
      <h2 style="color:#4b2e1e;margin:0 0 16px 0;">{{.AppName}}</h2>
      <p>Halo {{.CustomerName}},</p>
      <p>Pembayaran {{.Method}} untuk transaksi <strong>{{.InvoiceNo}}</strong> telah kami terima pada {{.PaidAt}}.</p>
      <table style="width:100%;border-collapse:collapse;margin:16px 0;">
        {{range .Lines}}<tr><td>{{.Quantity}} x {{.Name}}</td><td style="text-align:right;">{{.Total}}</td></tr>{{end}}
        <tr><td style="border-top:1px solid #ddd;"><strong>Total</strong></td><td style="border-top:1px solid #ddd;text-align:right;"><strong>{{.Total}}</strong></td></tr>
      </table>
      <p style="color:#888;font-size:12px;">Terima kasih telah berbelanja.</p>
    </td></tr>
  </table>
</body>
</html>
`
