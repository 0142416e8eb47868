package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware_CountsByRouteTemplate(t *testing.T) {
	m := New()
	r := mux.NewRouter()
	r.Use(m.Middleware)
	r.HandleFunc("/with-service/events", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}).Methods("GET")

	for i := 0; i < 3; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/with-service/events", nil))
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("/with-service/events", "GET", "418")))
}

func TestRecordUpstreamCall(t *testing.T) {
	m := New()

	m.RecordUpstreamCall("list", "service-account", nil)
	m.RecordUpstreamCall("list", "service-account", errors.New("quota"))
	m.RecordUpstreamCall("list", "service-account", errors.New("quota"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.upstreamCalls.WithLabelValues("list", "service-account", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.upstreamCalls.WithLabelValues("list", "service-account", "error")))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	m := New()
	m.RecordExchange(nil)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `gcalbridge_oauth2_exchanges_total{result="success"} 1`)
}

func TestMiddleware_LabelsUnmatchedRequests(t *testing.T) {
	m := New()
	r := mux.NewRouter()
	r.HandleFunc("/with-service/events", func(w http.ResponseWriter, r *http.Request) {}).Methods("GET")
	r.NotFoundHandler = m.Middleware(http.NotFoundHandler())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("unmatched", "GET", "404")))
}
