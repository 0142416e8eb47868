package calendar

import (
	"net/http"

	"github.com/klokku/gcalbridge/internal/rest"
	"github.com/klokku/gcalbridge/pkg/google"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	gateway *Gateway
}

func NewHandler(gateway *Gateway) *Handler {
	return &Handler{gateway: gateway}
}

// ListEvents godoc
// @Summary List upcoming events
// @Description Lists upcoming events of the configured calendar with the credential bound to the route prefix
// @Tags Calendar
// @Produce json
// @Success 200 {array} calendar.Event
// @Failure 401 {object} rest.ErrorResponse
// @Failure 502 {object} rest.ErrorResponse
// @Router /with-oauth2/events [get]
// @Router /with-service/events [get]
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	handle, err := HandleFrom(r.Context())
	if err != nil {
		log.Error(err)
		rest.WriteError(w, http.StatusInternalServerError, "Calendar client unavailable", err.Error())
		return
	}

	events, err := h.gateway.ListEvents(r.Context(), handle)
	if err != nil {
		google.WriteError(w, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, events)
}

// CreateEvent godoc
// @Summary Insert the sample event
// @Description Inserts the configured sample event into the configured calendar
// @Tags Calendar
// @Produce json
// @Success 200 {object} calendar.Event
// @Failure 401 {object} rest.ErrorResponse
// @Failure 502 {object} rest.ErrorResponse
// @Router /with-oauth2/create-event [get]
// @Router /with-service/create-event [get]
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	handle, err := HandleFrom(r.Context())
	if err != nil {
		log.Error(err)
		rest.WriteError(w, http.StatusInternalServerError, "Calendar client unavailable", err.Error())
		return
	}

	created, err := h.gateway.CreateEvent(r.Context(), handle)
	if err != nil {
		google.WriteError(w, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, created)
}
