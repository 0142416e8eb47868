package google

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// Handle is a Calendar v3 service authorized by exactly one credential provider.
type Handle struct {
	Service  *calendar.Service
	Strategy Strategy
}

// HandleFactory builds a fresh Handle for each request from its provider.
type HandleFactory struct {
	provider CredentialProvider
	options  []option.ClientOption
}

// NewHandleFactory returns a factory for provider. Extra options are appended
// to every calendar.NewService call, e.g. option.WithEndpoint.
func NewHandleFactory(provider CredentialProvider, options ...option.ClientOption) *HandleFactory {
	return &HandleFactory{provider: provider, options: options}
}

func (f *HandleFactory) Strategy() Strategy {
	return f.provider.Strategy()
}

func (f *HandleFactory) Handle(ctx context.Context) (*Handle, error) {
	client, err := f.provider.Client(ctx)
	if err != nil {
		return nil, err
	}

	opts := append([]option.ClientOption{option.WithHTTPClient(client)}, f.options...)
	service, err := calendar.NewService(ctx, opts...)
	if err != nil {
		err := fmt.Errorf("unable to create Calendar client: %w", err)
		log.Error(err)
		return nil, err
	}
	return &Handle{Service: service, Strategy: f.provider.Strategy()}, nil
}
