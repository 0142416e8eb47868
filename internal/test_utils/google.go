package test_utils

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/klokku/gcalbridge/internal/config"
	"google.golang.org/api/calendar/v3"
)

const (
	ServiceAccountToken = "svc-token"
	jwtBearerGrant      = "urn:ietf:params:oauth:grant-type:jwt-bearer"
)

// FakeGoogle emulates the OAuth2 token endpoint and the Calendar v3 events
// collection closely enough for the gateway and its handlers.
type FakeGoogle struct {
	*httptest.Server

	mu            sync.Mutex
	validCodes    map[string]bool
	exchanges     int
	jwtGrants     int
	events        map[string][]*calendar.Event
	nextId        int
	listRequests  []url.Values
	failStatus    int
	failMessage   string
	ignoreTimeMin bool
}

func NewFakeGoogle(t testing.TB, validCodes ...string) *FakeGoogle {
	t.Helper()
	f := &FakeGoogle{
		validCodes: make(map[string]bool),
		events:     make(map[string][]*calendar.Event),
	}
	for _, c := range validCodes {
		f.validCodes[c] = true
	}

	r := mux.NewRouter()
	r.HandleFunc("/token", f.serveToken).Methods("POST")
	api := r.PathPrefix("/calendar/v3").Subrouter()
	api.HandleFunc("/calendars/{calendarId}/events", f.listEvents).Methods("GET")
	api.HandleFunc("/calendars/{calendarId}/events", f.insertEvent).Methods("POST")

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Close)
	return f
}

// APIEndpoint is the value for option.WithEndpoint.
func (f *FakeGoogle) APIEndpoint() string {
	return f.URL + "/calendar/v3/"
}

func (f *FakeGoogle) OAuth2Config() config.OAuth2 {
	return config.OAuth2{
		ClientId:     "client-id",
		ClientSecret: "client-secret",
		RedirectUrl:  "http://localhost:3000/oauth2callback",
		AuthUrl:      "https://accounts.example.com/o/oauth2/auth",
		TokenUrl:     f.URL + "/token",
	}
}

func (f *FakeGoogle) ServiceAccountConfig(t testing.TB) config.ServiceAccount {
	return config.ServiceAccount{
		ClientEmail: "robot@project.iam.gserviceaccount.com",
		PrivateKey:  RSAKeyPEM(t),
		TokenUrl:    f.URL + "/token",
	}
}

func (f *FakeGoogle) AddCode(code string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.validCodes[code] = true
}

// Counts returns the number of code exchanges and JWT grants served.
func (f *FakeGoogle) Counts() (exchanges int, jwtGrants int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exchanges, f.jwtGrants
}

func (f *FakeGoogle) AddEvent(calendarId string, e *calendar.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e.Id == "" {
		f.nextId++
		e.Id = fmt.Sprintf("evt-%d", f.nextId)
	}
	f.events[calendarId] = append(f.events[calendarId], e)
}

func (f *FakeGoogle) Events(calendarId string) []*calendar.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*calendar.Event(nil), f.events[calendarId]...)
}

func (f *FakeGoogle) ListRequests() []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]url.Values(nil), f.listRequests...)
}

// FailCalendarWith makes every following Calendar API call fail with status.
func (f *FakeGoogle) FailCalendarWith(status int, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failStatus = status
	f.failMessage = message
}

// IgnoreTimeMin makes listings return stored events regardless of timeMin.
func (f *FakeGoogle) IgnoreTimeMin() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ignoreTimeMin = true
}

func (f *FakeGoogle) serveToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		f.exchanges++
		code := r.PostForm.Get("code")
		if !f.validCodes[code] {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
			return
		}
		delete(f.validCodes, code)
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  "user-token-" + code,
			"refresh_token": "refresh-" + code,
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	case jwtBearerGrant:
		f.jwtGrants++
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": ServiceAccountToken,
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
	}
}

func (f *FakeGoogle) authorize(w http.ResponseWriter, r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	if auth != "Bearer "+ServiceAccountToken && !strings.HasPrefix(auth, "Bearer user-token-") {
		writeAPIError(w, http.StatusUnauthorized, "Request is missing required authentication credential.")
		return false
	}
	if f.failStatus != 0 {
		writeAPIError(w, f.failStatus, f.failMessage)
		return false
	}
	return true
}

func (f *FakeGoogle) listEvents(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	query := r.URL.Query()
	f.listRequests = append(f.listRequests, query)
	if !f.authorize(w, r) {
		return
	}

	items := make([]*calendar.Event, 0)
	timeMin, _ := time.Parse(time.RFC3339, query.Get("timeMin"))
	for _, e := range f.events[mux.Vars(r)["calendarId"]] {
		if !f.ignoreTimeMin && !timeMin.IsZero() && e.End != nil {
			if end, err := time.Parse(time.RFC3339, e.End.DateTime); err == nil && !end.After(timeMin) {
				continue
			}
		}
		items = append(items, e)
	}
	if query.Get("orderBy") == "startTime" {
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Start.DateTime < items[j].Start.DateTime
		})
	}
	if max, err := strconv.Atoi(query.Get("maxResults")); err == nil && max < len(items) {
		items = items[:max]
	}

	writeJSON(w, http.StatusOK, &calendar.Events{
		Kind:  "calendar#events",
		Items: items,
	})
}

func (f *FakeGoogle) insertEvent(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.authorize(w, r) {
		return
	}
	var event calendar.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}
	f.nextId++
	event.Id = fmt.Sprintf("evt-%d", f.nextId)
	event.Kind = "calendar#event"
	event.Status = "confirmed"

	calendarId := mux.Vars(r)["calendarId"]
	f.events[calendarId] = append(f.events[calendarId], &event)
	writeJSON(w, http.StatusOK, &event)
}

func writeAPIError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    status,
			"message": message,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// RSAKeyPEM returns a freshly generated PKCS#8 RSA key.
func RSAKeyPEM(t testing.TB) string {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate RSA key: %v", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("failed to marshal RSA key: %v", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
}
