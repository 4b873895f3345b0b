package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shaadi-rsvp/shaadi/internal/email"
	"github.com/shaadi-rsvp/shaadi/internal/metrics"
	"github.com/shaadi-rsvp/shaadi/internal/model"
)

type fakeSender struct {
	configured bool
	err        error
	sent       []email.Message
}

func (f *fakeSender) Configured() bool { return f.configured }

func (f *fakeSender) Send(_ context.Context, msg email.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func testParty() *model.Party {
	return &model.Party{ID: "p1", Name: "Sharma <Family>", Email: "sharma@example.com", Code: "ABCD2345"}
}

func newTestNotifier(s Sender, m *metrics.Metrics) *Notifier {
	return New(s, "https://rsvp.example.com/", "Priya & Arjun", m, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCompose(t *testing.T) {
	n := newTestNotifier(&fakeSender{}, nil)
	msg := n.Compose(testParty())

	if msg.To != "sharma@example.com" {
		t.Errorf("To = %q", msg.To)
	}
	if want := "Your RSVP Code for Priya & Arjun's Wedding"; msg.Subject != want {
		t.Errorf("Subject = %q, want %q", msg.Subject, want)
	}
	link := "https://rsvp.example.com/rsvp/ABCD2345/"
	if !strings.Contains(msg.TextBody, "ABCD2345") || !strings.Contains(msg.TextBody, link) {
		t.Errorf("text body missing code or link:\n%s", msg.TextBody)
	}
	if !strings.Contains(msg.HTMLBody, "Sharma &lt;Family&gt;") {
		t.Errorf("html body should escape the name:\n%s", msg.HTMLBody)
	}
}

func TestSendAccessCode(t *testing.T) {
	m := metrics.New()
	s := &fakeSender{configured: true}
	newTestNotifier(s, m).SendAccessCode(context.Background(), testParty())

	if len(s.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(s.sent))
	}
	if got := testutil.ToFloat64(m.CodeEmails.WithLabelValues(metrics.ResultOK)); got != 1 {
		t.Errorf("ok counter = %v, want 1", got)
	}
}

func TestSendAccessCodeFailuresAreSwallowed(t *testing.T) {
	tests := []struct {
		name   string
		sender *fakeSender
	}{
		{"not configured", &fakeSender{}},
		{"delivery error", &fakeSender{configured: true, err: errors.New("postmark API error: status 500")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := metrics.New()
			newTestNotifier(tt.sender, m).SendAccessCode(context.Background(), testParty())
			if got := testutil.ToFloat64(m.CodeEmails.WithLabelValues(metrics.ResultFailed)); got != 1 {
				t.Errorf("failed counter = %v, want 1", got)
			}
		})
	}
}

func TestRSVPLink(t *testing.T) {
	if got := RSVPLink("http://localhost:8080", "ABCD2345"); got != "http://localhost:8080/rsvp/ABCD2345/" {
		t.Errorf("RSVPLink = %q", got)
	}
}
