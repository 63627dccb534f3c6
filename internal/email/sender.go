package email

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// Config holds SMTP settings.
type Config struct {
	SMTPHost  string
	SMTPPort  int
	Username  string
	Password  string
	FromEmail string
	FromName  string
}

func (c Config) Validate() error {
	if c.SMTPHost == "" {
		return fmt.Errorf("smtp host is required")
	}
	if c.FromEmail == "" {
		return fmt.Errorf("from email is required")
	}
	return nil
}

// SMTPProvider sends email over SMTP via gomail.
type SMTPProvider struct {
	config    Config
	templates *TemplateManager
}

func NewSMTPProvider(config Config) (Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid email config: %w", err)
	}

	tm, err := NewTemplateManager()
	if err != nil {
		return nil, err
	}

	return &SMTPProvider{
		config:    config,
		templates: tm,
	}, nil
}

func (p *SMTPProvider) Send(email *Email) error {
	if len(email.To) == 0 {
		return fmt.Errorf("no recipients specified")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(p.config.FromEmail, p.config.FromName))
	m.SetHeader("To", email.To...)
	m.SetHeader("Subject", email.Subject)
	m.SetBody("text/html", email.HTML)

	d := gomail.NewDialer(
		p.config.SMTPHost,
		p.config.SMTPPort,
		p.config.Username,
		p.config.Password,
	)

	return d.DialAndSend(m)
}

func (p *SMTPProvider) SendTemplate(to []string, subject, templateName string, data TemplateData) error {
	html, err := p.templates.Render(templateName, data)
	if err != nil {
		return err
	}
	return p.Send(&Email{
		To:      to,
		Subject: subject,
		HTML:    html,
	})
}
