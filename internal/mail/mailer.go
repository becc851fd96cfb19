// Package mail sends the booking confirmation to the patient. Delivery is
// best-effort: the scheduling service logs and swallows any error here,
// since the persisted booking is the source of truth.
package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"

	"github.com/mediwork/agenda/internal/schedule"
)

type SMTPMailer struct {
	client *gomail.Client
	from   string
}

func NewSMTPMailer(host string, port int, user, pass, from string) (*SMTPMailer, error) {
	client, err := gomail.NewClient(host,
		gomail.WithPort(port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(user),
		gomail.WithPassword(pass),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	return &SMTPMailer{client: client, from: from}, nil
}

func (m *SMTPMailer) SendConfirmation(ctx context.Context, c schedule.Confirmation) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("set from address: %w", err)
	}
	if err := msg.To(c.Recipient); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}

	msg.Subject("Your appointment is confirmed")
	msg.SetBodyString(gomail.TypeTextHTML, confirmationBody(c))

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send confirmation mail: %w", err)
	}

	return nil
}

func confirmationBody(c schedule.Confirmation) string {
	return fmt.Sprintf(`<div style="font-family: sans-serif; color: #333;">
  <h2>Hello, %s!</h2>
  <p>Your appointment has been booked.</p>
  <hr />
  <p><strong>Date:</strong> %s</p>
  <p><strong>Time:</strong> %s</p>
  <p><strong>Room:</strong> %s</p>
  <p><strong>Practitioner:</strong> %s</p>
  <hr />
  <p>If you need to cancel or reschedule, please contact us in advance.</p>
</div>`, c.PatientName, c.Date, c.Time, c.Room, c.Practitioner)
}
