package google

import (
	"net/http"

	"github.com/klokku/gcalbridge/internal/event_bus"
	log "github.com/sirupsen/logrus"
)

// ExchangeRecorder observes authorization code exchanges.
type ExchangeRecorder interface {
	RecordExchange(err error)
}

type AuthHandler struct {
	session  *OAuth2Session
	bus      *event_bus.EventBus
	recorder ExchangeRecorder
}

func NewAuthHandler(session *OAuth2Session, bus *event_bus.EventBus, recorder ExchangeRecorder) *AuthHandler {
	return &AuthHandler{session: session, bus: bus, recorder: recorder}
}

// OAuthLogin godoc
// @Summary Start the OAuth2 flow
// @Description Redirects to the Google consent screen
// @Tags OAuth2
// @Success 302 "Redirect to the consent screen"
// @Router /oauth2 [get]
func (h *AuthHandler) OAuthLogin(w http.ResponseWriter, r *http.Request) {
	u := h.session.AuthCodeURL()
	log.Debug("Redirecting to Google consent screen")
	http.Redirect(w, r, u, http.StatusFound)
}

// OAuthCallback godoc
// @Summary OAuth2 callback
// @Description Exchanges the authorization code for a token held in memory
// @Tags OAuth2
// @Param code query string true "Authorization code"
// @Param state query string true "State parameter"
// @Success 200 {string} string "Authentication successful"
// @Failure 400 {object} rest.ErrorResponse
// @Router /oauth2callback [get]
func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	code := r.FormValue("code")
	state := r.FormValue("state")

	token, err := h.session.Exchange(r.Context(), state, code)
	if h.recorder != nil {
		h.recorder.RecordExchange(err)
	}
	if err != nil {
		log.Error(err)
		WriteError(w, err)
		return
	}

	if h.bus != nil {
		event := event_bus.NewEvent(r.Context(), event_bus.OAuth2AuthenticatedType, event_bus.OAuth2Authenticated{
			Expiry:          token.Expiry,
			HasRefreshToken: token.RefreshToken != "",
		})
		if err := h.bus.Publish(event); err != nil {
			log.Warnf("failed to publish authentication event: %v", err)
		}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Authentication successful! Please return to the console."))
}
