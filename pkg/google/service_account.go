package google

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"strings"

	"github.com/klokku/gcalbridge/internal/config"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/calendar/v3"
)

// ServiceAccount authorizes calls with a signed JWT. It needs no interactive step.
type ServiceAccount struct {
	jwtConfig *jwt.Config
	tokens    oauth2.TokenSource
}

// NewServiceAccount validates the key material and returns a ready provider.
// It fails with a *CredentialError when the email or private key is unusable.
func NewServiceAccount(cfg config.ServiceAccount) (*ServiceAccount, error) {
	if cfg.ClientEmail == "" {
		return nil, &CredentialError{Reason: "client email is empty"}
	}
	key := normalizePrivateKey(cfg.PrivateKey)
	if err := validatePrivateKey(key); err != nil {
		return nil, err
	}

	jwtConfig := &jwt.Config{
		Email:      cfg.ClientEmail,
		PrivateKey: key,
		Scopes:     []string{calendar.CalendarScope},
		TokenURL:   cfg.TokenUrl,
	}
	log.Infof("Service account credential loaded for %s", cfg.ClientEmail)

	return &ServiceAccount{
		jwtConfig: jwtConfig,
		tokens:    oauth2.ReuseTokenSource(nil, jwtConfig.TokenSource(context.Background())),
	}, nil
}

func (s *ServiceAccount) Strategy() Strategy {
	return StrategyServiceAccount
}

func (s *ServiceAccount) Email() string {
	return s.jwtConfig.Email
}

func (s *ServiceAccount) Client(ctx context.Context) (*http.Client, error) {
	return oauth2.NewClient(ctx, s.tokens), nil
}

// normalizePrivateKey turns escaped "\n" sequences, as found in env files, into newlines.
func normalizePrivateKey(key string) []byte {
	key = strings.TrimSpace(key)
	key = strings.Trim(key, `"`)
	return []byte(strings.ReplaceAll(key, `\n`, "\n"))
}

func validatePrivateKey(key []byte) error {
	if len(key) == 0 {
		return &CredentialError{Reason: "private key is empty"}
	}
	block, _ := pem.Decode(key)
	if block == nil {
		return &CredentialError{Reason: "private key is not PEM encoded"}
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		parsed, err = x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return &CredentialError{Reason: "private key cannot be parsed", Err: err}
		}
	}
	if _, ok := parsed.(*rsa.PrivateKey); !ok {
		return &CredentialError{Reason: "private key is not an RSA key"}
	}
	return nil
}
