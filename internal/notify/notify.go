// Package notify sends guests their access codes by email.
package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/shaadi-rsvp/shaadi/internal/email"
	"github.com/shaadi-rsvp/shaadi/internal/metrics"
	"github.com/shaadi-rsvp/shaadi/internal/model"
)

// Sender delivers a composed message. *email.Client satisfies it.
type Sender interface {
	Configured() bool
	Send(ctx context.Context, msg email.Message) error
}

type Notifier struct {
	sender  Sender
	baseURL string
	couple  string
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func New(sender Sender, baseURL, couple string, m *metrics.Metrics, logger *slog.Logger) *Notifier {
	return &Notifier{
		sender:  sender,
		baseURL: strings.TrimRight(baseURL, "/"),
		couple:  couple,
		metrics: m,
		logger:  logger.With("component", "notify"),
	}
}

// RSVPLink is the guest-facing link for an access code.
func RSVPLink(baseURL, accessCode string) string {
	return strings.TrimRight(baseURL, "/") + "/rsvp/" + accessCode + "/"
}

// Compose builds the access code email for a party.
func (n *Notifier) Compose(p *model.Party) email.Message {
	link := RSVPLink(n.baseURL, p.Code)
	text := fmt.Sprintf(
		"Dear %s,\n\nYour RSVP code for %s's wedding is: %s\n\nRespond here: %s\n\nWith love,\n%s\n",
		p.Name, n.couple, p.Code, link, n.couple,
	)
	htmlBody := fmt.Sprintf(
		`<p>Dear %s,</p><p>Your RSVP code for %s's wedding is: <strong>%s</strong></p><p><a href="%s">Respond to your invitation</a></p><p>With love,<br>%s</p>`,
		html.EscapeString(p.Name), html.EscapeString(n.couple), p.Code, html.EscapeString(link), html.EscapeString(n.couple),
	)
	return email.Message{
		To:       p.Email,
		Subject:  fmt.Sprintf("Your RSVP Code for %s's Wedding", n.couple),
		TextBody: text,
		HTMLBody: htmlBody,
	}
}

// SendAccessCode emails a party its code. Delivery failures are logged and
// counted, never returned: the guest flow continues regardless.
func (n *Notifier) SendAccessCode(ctx context.Context, p *model.Party) {
	if !n.sender.Configured() {
		n.logger.Warn("email not configured, access code not sent", "party_id", p.ID)
		n.record(metrics.ResultFailed)
		return
	}
	if err := n.sender.Send(ctx, n.Compose(p)); err != nil {
		level := slog.LevelError
		if errors.Is(err, context.Canceled) {
			level = slog.LevelWarn
		}
		n.logger.Log(ctx, level, "send access code", "party_id", p.ID, "error", err)
		n.record(metrics.ResultFailed)
		return
	}
	n.logger.Info("access code sent", "party_id", p.ID)
	n.record(metrics.ResultOK)
}

func (n *Notifier) record(result string) {
	if n.metrics != nil {
		n.metrics.CodeEmails.WithLabelValues(result).Inc()
	}
}
