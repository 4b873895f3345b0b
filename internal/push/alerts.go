package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shaadi-rsvp/shaadi/internal/model"
	"github.com/shaadi-rsvp/shaadi/internal/store"
)

const alertTimeout = 30 * time.Second

// Alerter tells every subscribed organizer browser when a party responds.
// Deliveries run in the background; expired endpoints are removed.
type Alerter struct {
	service *Service
	subs    *store.PushStore
	logger  *slog.Logger
	wg      sync.WaitGroup
}

func NewAlerter(svc *Service, subs *store.PushStore, logger *slog.Logger) *Alerter {
	return &Alerter{service: svc, subs: subs, logger: logger}
}

// Enabled reports whether alerts can be sent at all.
func (a *Alerter) Enabled() bool {
	return a != nil && a.service.Configured()
}

// PartyResponded queues an alert for a submitted RSVP.
func (a *Alerter) PartyResponded(p *model.Party) {
	if !a.Enabled() {
		return
	}
	payload := Payload{
		Title: "New RSVP",
		Body:  fmt.Sprintf("%s submitted their RSVP", p.Name),
		URL:   "/dashboard/guests/?q=" + p.Code,
		Tag:   "rsvp-" + p.ID,
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), alertTimeout)
		defer cancel()
		a.broadcast(ctx, payload)
	}()
}

// Wait blocks until queued alerts have been delivered or dropped.
func (a *Alerter) Wait() {
	if a != nil {
		a.wg.Wait()
	}
}

func (a *Alerter) broadcast(ctx context.Context, payload Payload) {
	subs, err := a.subs.List()
	if err != nil {
		a.logger.Error("list push subscriptions", "error", err)
		return
	}
	for i := range subs {
		sub := &subs[i]
		err := a.service.Send(ctx, sub, payload)
		switch {
		case err == nil:
			a.logger.Debug("push alert sent", "subscription_id", sub.ID)
		case errors.Is(err, ErrExpired):
			a.logger.Info("removing expired push subscription", "subscription_id", sub.ID)
			if err := a.subs.DeleteByEndpoint(sub.Endpoint); err != nil {
				a.logger.Error("delete expired push subscription", "subscription_id", sub.ID, "error", err)
			}
		default:
			a.logger.Warn("push alert failed", "subscription_id", sub.ID, "error", err)
		}
	}
}
