package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/klokku/gcalbridge/internal/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestHTTPStatus(t *testing.T) {
	remote := func(err error) error {
		return NewRemoteAPIError("list", StrategyServiceAccount, err)
	}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unauthenticated", ErrUnauthenticated, http.StatusUnauthorized},
		{"wrapped unauthenticated", fmt.Errorf("binding: %w", ErrUnauthenticated), http.StatusUnauthorized},
		{"invalid state", ErrInvalidState, http.StatusBadRequest},
		{"missing code", ErrMissingCode, http.StatusBadRequest},
		{"exchange rejected", &AuthExchangeError{Err: errors.New("invalid_grant")}, http.StatusBadRequest},
		{"upstream unauthorized", remote(&googleapi.Error{Code: 401}), http.StatusUnauthorized},
		{"upstream forbidden", remote(&googleapi.Error{Code: 403}), http.StatusForbidden},
		{"upstream not found", remote(&googleapi.Error{Code: 404}), http.StatusNotFound},
		{"upstream quota", remote(&googleapi.Error{Code: 429}), http.StatusTooManyRequests},
		{"upstream internal", remote(&googleapi.Error{Code: 500}), http.StatusBadGateway},
		{"upstream timeout", remote(&url.Error{Op: "Get", URL: "x", Err: context.DeadlineExceeded}), http.StatusGatewayTimeout},
		{"network", remote(errors.New("connection refused")), http.StatusBadGateway},
		{"credential", &CredentialError{Reason: "bad"}, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestRemoteAPIError_Unwrap(t *testing.T) {
	apiErr := &googleapi.Error{Code: 403, Message: "insufficient permissions"}
	err := fmt.Errorf("handler: %w", NewRemoteAPIError("insert", StrategyInteractive, apiErr))

	var unwrapped *googleapi.Error
	require.ErrorAs(t, err, &unwrapped)
	assert.Equal(t, 403, unwrapped.Code)
	assert.Contains(t, err.Error(), "calendar insert via interactive failed")
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()

	WriteError(w, NewRemoteAPIError("list", StrategyServiceAccount, &googleapi.Error{Code: 404, Message: "Not Found"}))

	assert.Equal(t, http.StatusNotFound, w.Code)
	var body rest.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "Calendar API request failed", body.Error)
	assert.Contains(t, body.Details, "Not Found")
}
