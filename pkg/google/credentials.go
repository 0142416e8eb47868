package google

import (
	"context"
	"net/http"
)

// Strategy names a credential provider.
type Strategy string

const (
	StrategyInteractive    Strategy = "interactive"
	StrategyServiceAccount Strategy = "service-account"
)

// CredentialProvider produces HTTP clients authorized for the Calendar API.
type CredentialProvider interface {
	Strategy() Strategy
	Client(ctx context.Context) (*http.Client, error)
}
