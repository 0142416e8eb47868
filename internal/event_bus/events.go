package event_bus

import "time"

const (
	OAuth2AuthenticatedType  EventType = "oauth2.authenticated"
	CalendarEventCreatedType EventType = "calendar.event.created"
)

// OAuth2Authenticated is published after an authorization code was exchanged.
type OAuth2Authenticated struct {
	Expiry          time.Time
	HasRefreshToken bool
}

type CalendarEventCreated struct {
	UID        string
	CalendarId string
	Summary    string
	Start      string
	End        string
	// Strategy names the credential used for the insert.
	Strategy string
}
