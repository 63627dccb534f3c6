package email

import (
	"bytes"
	"fmt"
	"html/template"
)

// Built-in message bodies. Kept inline so the binary is self-contained.
var builtinTemplates = map[string]string{
	"payment_confirmation": `
<h2>Payment received</h2>
<p>Hi {{.Name}},</p>
<p>We received your payment of {{.Currency}} {{printf "%.2f" .Amount}} for {{.ItemName}}.</p>
<p>Reference: {{.Reference}}</p>
<p>Thank you for supporting local business on CapeBiz Connect.</p>
`,
	"renewal_reminder": `
<h2>Your listing subscription is expiring</h2>
<p>Hi {{.Name}},</p>
<p>The {{.Tier}} subscription for "{{.BusinessName}}" expires on {{.Expiry}}.</p>
<p>Renew now to keep your listing benefits.</p>
`,
	"listing_approved": `
<h2>Your listing is live</h2>
<p>Hi {{.Name}},</p>
<p>Your listing "{{.BusinessName}}" has been approved and is now visible in the directory.</p>
`,
}

// TemplateManager renders named templates.
type TemplateManager struct {
	templates map[string]*template.Template
}

func NewTemplateManager() (*TemplateManager, error) {
	tm := &TemplateManager{templates: make(map[string]*template.Template)}
	for name, body := range builtinTemplates {
		t, err := template.New(name).Parse(body)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %q: %w", name, err)
		}
		tm.templates[name] = t
	}
	return tm, nil
}

func (tm *TemplateManager) Render(name string, data TemplateData) (string, error) {
	t, ok := tm.templates[name]
	if !ok {
		return "", fmt.Errorf("unknown email template %q", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template %q: %w", name, err)
	}
	return buf.String(), nil
}
