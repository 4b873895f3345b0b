// Package auth carries the signed-in organizer through request contexts.
package auth

import "context"

type contextKey struct{}

// Organizer identifies the signed-in organizer and the session they used.
type Organizer struct {
	ID        int64
	Email     string
	Name      string
	SessionID int64
}

func WithOrganizer(ctx context.Context, o Organizer) context.Context {
	return context.WithValue(ctx, contextKey{}, o)
}

func FromContext(ctx context.Context) (Organizer, bool) {
	o, ok := ctx.Value(contextKey{}).(Organizer)
	return o, ok
}

// OrganizerID returns the signed-in organizer's id, or 0.
func OrganizerID(ctx context.Context) int64 {
	o, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return o.ID
}

// DisplayName prefers the organizer's name and falls back to their email.
func (o Organizer) DisplayName() string {
	if o.Name != "" {
		return o.Name
	}
	return o.Email
}
