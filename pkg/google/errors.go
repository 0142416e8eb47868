package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/klokku/gcalbridge/internal/rest"
	"google.golang.org/api/googleapi"
)

var (
	ErrUnauthenticated = errors.New("oauth2 session is unauthenticated, visit /oauth2 first")
	ErrInvalidState    = errors.New("unknown or already used oauth2 state")
	ErrMissingCode     = errors.New("authorization code is missing")
)

// AuthExchangeError reports that the token endpoint rejected an authorization code.
type AuthExchangeError struct {
	Err error
}

func (e *AuthExchangeError) Error() string {
	return fmt.Sprintf("unable to exchange code for token: %v", e.Err)
}

func (e *AuthExchangeError) Unwrap() error { return e.Err }

// CredentialError reports malformed service account key material.
type CredentialError struct {
	Reason string
	Err    error
}

func (e *CredentialError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid service account credential: %s: %v", e.Reason, e.Err)
	}
	return "invalid service account credential: " + e.Reason
}

func (e *CredentialError) Unwrap() error { return e.Err }

// RemoteAPIError wraps a failed Calendar API call.
type RemoteAPIError struct {
	Operation string
	Strategy  Strategy
	Err       error
}

func NewRemoteAPIError(operation string, strategy Strategy, err error) *RemoteAPIError {
	return &RemoteAPIError{Operation: operation, Strategy: strategy, Err: err}
}

func (e *RemoteAPIError) Error() string {
	return fmt.Sprintf("calendar %s via %s failed: %v", e.Operation, e.Strategy, e.Err)
}

func (e *RemoteAPIError) Unwrap() error { return e.Err }

// HTTPStatus is the status code reported to our client for this upstream failure.
func (e *RemoteAPIError) HTTPStatus() int {
	var apiErr *googleapi.Error
	if errors.As(e.Err, &apiErr) {
		switch apiErr.Code {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden,
			http.StatusNotFound, http.StatusConflict, http.StatusTooManyRequests:
			return apiErr.Code
		}
		return http.StatusBadGateway
	}
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

// HTTPStatus maps any error produced by this package or the calendar gateway to a status code.
func HTTPStatus(err error) int {
	var (
		exchangeErr *AuthExchangeError
		remoteErr   *RemoteAPIError
	)
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrInvalidState), errors.Is(err, ErrMissingCode):
		return http.StatusBadRequest
	case errors.As(err, &exchangeErr):
		return http.StatusBadRequest
	case errors.As(err, &remoteErr):
		return remoteErr.HTTPStatus()
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes err as a rest.ErrorResponse with the mapped status code.
func WriteError(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	rest.WriteError(w, status, errorMessage(status, err), err.Error())
}

func errorMessage(status int, err error) string {
	var remoteErr *RemoteAPIError
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return "Authentication required"
	case errors.As(err, &remoteErr):
		return "Calendar API request failed"
	case status == http.StatusBadRequest:
		return "Authentication failed"
	default:
		return http.StatusText(status)
	}
}
