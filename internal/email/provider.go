package email

// Email is one outbound message.
type Email struct {
	To      []string
	Subject string
	HTML    string
}

// TemplateData feeds the message templates.
type TemplateData map[string]interface{}

// Provider sends email. The payment subsystem treats delivery as
// fire-and-forget: a send failure never affects committed payment state.
type Provider interface {
	Send(email *Email) error
	SendTemplate(to []string, subject, templateName string, data TemplateData) error
}
