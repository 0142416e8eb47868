package app

import (
	"strings"

	"github.com/klokku/gcalbridge/internal/config"
	"github.com/klokku/gcalbridge/internal/event_bus"
	"github.com/klokku/gcalbridge/internal/health"
	"github.com/klokku/gcalbridge/internal/metrics"
	"github.com/klokku/gcalbridge/internal/rest"
	"github.com/klokku/gcalbridge/internal/utils"
	"github.com/klokku/gcalbridge/pkg/calendar"
	"github.com/klokku/gcalbridge/pkg/google"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Clock    utils.Clock
	EventBus *event_bus.EventBus
	Metrics  *metrics.Metrics
	Health   *health.Checker
	Index    *rest.IndexHandler

	OAuth2Session *google.OAuth2Session
	OAuth2Handles *google.HandleFactory
	AuthHandler   *google.AuthHandler

	ServiceAccount *google.ServiceAccount
	ServiceHandles *google.HandleFactory

	Gateway         *calendar.Gateway
	CalendarHandler *calendar.Handler
}

// BuildDependencies initializes and wires all application services and handlers.
// It fails when the service account credentials are unusable.
func BuildDependencies(cfg config.Application, clock utils.Clock, apiOptions ...option.ClientOption) (*Dependencies, error) {
	deps := &Dependencies{}

	deps.Clock = clock
	deps.EventBus = event_bus.NewEventBus()
	deps.Metrics = metrics.New()
	deps.Health = health.NewChecker()

	index, err := rest.NewIndexHandler(cfg.Host)
	if err != nil {
		return nil, err
	}
	deps.Index = index

	deps.OAuth2Session = google.NewOAuth2Session(cfg.OAuth2, clock)
	deps.OAuth2Handles = google.NewHandleFactory(deps.OAuth2Session, apiOptions...)
	deps.AuthHandler = google.NewAuthHandler(deps.OAuth2Session, deps.EventBus, deps.Metrics)

	deps.ServiceAccount, err = google.NewServiceAccount(cfg.ServiceAccount)
	if err != nil {
		log.Errorf("service account setup failed: %v", err)
		return nil, err
	}
	deps.ServiceHandles = google.NewHandleFactory(deps.ServiceAccount, apiOptions...)

	deps.Gateway = calendar.NewGateway(cfg, clock, deps.EventBus, deps.Metrics)
	deps.CalendarHandler = calendar.NewHandler(deps.Gateway)

	subscribeLoggers(deps.EventBus, cfg.Host)

	return deps, nil
}

func subscribeLoggers(bus *event_bus.EventBus, host string) {
	eventsURL := strings.TrimSuffix(host, "/") + "/with-oauth2/events"

	event_bus.SubscribeTyped(bus, event_bus.OAuth2AuthenticatedType, func(e event_bus.EventT[event_bus.OAuth2Authenticated]) error {
		log.Infof("OAuth2 authentication complete (token expires %s, refresh token: %t). List events at %s",
			e.Data.Expiry.Format("2006-01-02 15:04:05"), e.Data.HasRefreshToken, eventsURL)
		return nil
	})

	event_bus.SubscribeTyped(bus, event_bus.CalendarEventCreatedType, func(e event_bus.EventT[event_bus.CalendarEventCreated]) error {
		log.WithFields(log.Fields{
			"uid":      e.Data.UID,
			"calendar": e.Data.CalendarId,
			"strategy": e.Data.Strategy,
		}).Infof("Event %q created (%s - %s)", e.Data.Summary, e.Data.Start, e.Data.End)
		return nil
	})
}
