package notifications

import (
	"context"
	"fmt"
	"html"

	"github.com/anjiri1684/appointment_reminder/models"
	"github.com/rs/zerolog"
)

type Message struct {
	Subject string
	Text    string
}

// Delivery reports what happened on each channel for one booking.
type Delivery struct {
	MessageStatus int
	MessageErr    error
	EmailSent     bool
	EmailErr      error
}

// Delivered reports whether the primary (message) channel succeeded.
func (d Delivery) Delivered() bool {
	return d.MessageErr == nil
}

type Dispatcher struct {
	messages MessageSender
	email    EmailSender
	log      zerolog.Logger
}

// NewDispatcher builds a dispatcher; email may be nil when no email provider
// is configured.
func NewDispatcher(messages MessageSender, email EmailSender, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{messages: messages, email: email, log: log}
}

// Dispatch sends msg over the message channel, then by email when the booking
// has an address. Email goes out only after the message succeeds, so a
// booking retried because its message failed is not emailed on every attempt.
// Failures are logged and reported, never raised.
func (d *Dispatcher) Dispatch(ctx context.Context, b models.Booking, msg Message) Delivery {
	var out Delivery
	l := d.log.With().Str("booking_id", b.ID.String()).Logger()

	out.MessageStatus, out.MessageErr = d.messages.SendMessage(ctx, b.Phone, msg.Text)
	if out.MessageErr != nil {
		l.Error().Err(out.MessageErr).Int("status", out.MessageStatus).Str("phone", b.Phone).Msg("🔥 Failed to send message")
		return out
	}

	if b.Email == "" {
		return out
	}
	if d.email == nil {
		l.Debug().Msg("Email client not initialized, skipping email send")
		return out
	}
	if err := d.email.SendEmail(ctx, b.Name, b.Email, msg.Subject, htmlBody(msg)); err != nil {
		out.EmailErr = err
		l.Warn().Err(err).Str("email", b.Email).Msg("🔥 Failed to send email")
		return out
	}
	out.EmailSent = true
	return out
}

func htmlBody(msg Message) string {
	return fmt.Sprintf("<h1>%s</h1><p>%s</p>", html.EscapeString(msg.Subject), html.EscapeString(msg.Text))
}
