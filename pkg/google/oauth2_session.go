package google

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klokku/gcalbridge/internal/config"
	"github.com/klokku/gcalbridge/internal/utils"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
)

// stateTTL is how long an issued state nonce can be redeemed at the callback.
const stateTTL = 10 * time.Minute

type SessionState string

const (
	StateUnauthenticated SessionState = "unauthenticated"
	StateAwaitingCode    SessionState = "awaiting-code"
	StateAuthenticated   SessionState = "authenticated"
)

// OAuth2Session holds the credentials obtained through the authorization-code
// flow. Tokens live in memory only.
type OAuth2Session struct {
	oauthConfig *oauth2.Config
	clock       utils.Clock

	mu      sync.RWMutex
	token   *oauth2.Token
	pending map[string]time.Time
}

func NewOAuth2Session(cfg config.OAuth2, clock utils.Clock) *OAuth2Session {
	if cfg.ClientId == "" || cfg.ClientSecret == "" {
		log.Warn("OAuth2 client id or secret is not configured, the /oauth2 flow will fail")
	}
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientId,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   cfg.AuthUrl,
			TokenURL:  cfg.TokenUrl,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: cfg.RedirectUrl,
		Scopes:      []string{calendar.CalendarScope},
	}
	return &OAuth2Session{
		oauthConfig: oauthConfig,
		clock:       clock,
		pending:     make(map[string]time.Time),
	}
}

func (s *OAuth2Session) Strategy() Strategy {
	return StrategyInteractive
}

// AuthCodeURL returns the consent screen URL with a fresh state nonce and
// offline access requested.
func (s *OAuth2Session) AuthCodeURL() string {
	nonce := uuid.New().String()
	now := s.clock.Now()

	s.mu.Lock()
	for n, issued := range s.pending {
		if now.Sub(issued) > stateTTL {
			delete(s.pending, n)
		}
	}
	s.pending[nonce] = now
	s.mu.Unlock()

	log.Tracef("Issued OAuth2 state nonce: %s", nonce)
	return s.oauthConfig.AuthCodeURL(nonce, oauth2.AccessTypeOffline)
}

// Exchange redeems code for a token. The state nonce is consumed whether or
// not the exchange succeeds; stored credentials only change on success.
func (s *OAuth2Session) Exchange(ctx context.Context, state string, code string) (*oauth2.Token, error) {
	if code == "" {
		return nil, ErrMissingCode
	}
	if !s.consumeState(state) {
		return nil, ErrInvalidState
	}

	token, err := s.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, &AuthExchangeError{Err: err}
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	log.Debug("Stored OAuth2 token")
	return token, nil
}

func (s *OAuth2Session) consumeState(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	issued, ok := s.pending[state]
	if !ok {
		return false
	}
	delete(s.pending, state)
	return s.clock.Now().Sub(issued) <= stateTTL
}

func (s *OAuth2Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token != nil {
		return StateAuthenticated
	}
	if len(s.pending) > 0 {
		return StateAwaitingCode
	}
	return StateUnauthenticated
}

// Client returns ErrUnauthenticated until a code has been exchanged.
func (s *OAuth2Session) Client(ctx context.Context) (*http.Client, error) {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()

	if token == nil {
		log.Debug("OAuth2 session is unauthenticated, authentication is required")
		return nil, ErrUnauthenticated
	}
	return s.oauthConfig.Client(ctx, token), nil
}
