package libs

import (
	"bytes"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// Mailer sends transactional emails to producers.
type Mailer interface {
	SendSubOrderCreated(to string, n SubOrderNotice) error
}

type SubOrderNotice struct {
	ShopName       string
	OrderNumber    string
	SubOrderNumber string
	Subtotal       string
	Items          []NoticeLine
	DeliveryMethod string
	Notes          string
}

type NoticeLine struct {
	Name     string
	Quantity string
	Subtotal string
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	if cfg.Host == "" || cfg.User == "" || cfg.Pass == "" {
		return nil, fmt.Errorf("SMTP configuration missing")
	}
	port := cfg.Port
	if port == 0 {
		port = 587
	}
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, port, cfg.User, cfg.Pass),
		from:   cfg.From,
	}, nil
}

var subOrderTemplate = template.Must(template.New("sub_order").Parse(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; background-color: #f4f4f4; padding: 20px;">
    <div style="max-width: 600px; margin: 0 auto; background-color: white; padding: 30px; border-radius: 10px;">
        <h2 style="color: #2f6f3e;">New order for {{.ShopName}}</h2>
        <p><strong>Sub-order:</strong> {{.SubOrderNumber}} (order {{.OrderNumber}})</p>
        <table style="width: 100%; border-collapse: collapse;">
            {{range .Items}}
            <tr><td>{{.Name}}</td><td>{{.Quantity}}</td><td style="text-align: right;">{{.Subtotal}} DA</td></tr>
            {{end}}
        </table>
        <p><strong>Subtotal:</strong> {{.Subtotal}} DA</p>
        <p><strong>Delivery:</strong> {{.DeliveryMethod}}</p>
        {{if .Notes}}<p><strong>Customer notes:</strong> {{.Notes}}</p>{{end}}
        <p style="color: #666; font-size: 12px;">This is an automated email. Please do not reply.</p>
    </div>
</body>
</html>
`))

func RenderSubOrderNotice(n SubOrderNotice) (string, error) {
	var buf bytes.Buffer
	if err := subOrderTemplate.Execute(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (m *SMTPMailer) SendSubOrderCreated(to string, n SubOrderNotice) error {
	body, err := RenderSubOrderNotice(n)
	if err != nil {
		return fmt.Errorf("failed to render email: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", fmt.Sprintf("New order %s - Dz Fellah", n.SubOrderNumber))
	msg.SetBody("text/html", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// NopMailer is used when SMTP is not configured.
type NopMailer struct{}

func (NopMailer) SendSubOrderCreated(string, SubOrderNotice) error { return nil }
