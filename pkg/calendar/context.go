package calendar

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/klokku/gcalbridge/pkg/google"
	log "github.com/sirupsen/logrus"
)

type contextKey string

const HandleKey contextKey = "calendarHandle"

var ErrNoHandle = errors.New("calendar handle not found in request context")

// HandleSource produces the authorized handle for a request.
type HandleSource interface {
	Handle(ctx context.Context) (*google.Handle, error)
}

func WithHandle(ctx context.Context, h *google.Handle) context.Context {
	return context.WithValue(ctx, HandleKey, h)
}

// HandleFrom retrieves the handle bound by BindHandle. Returns ErrNoHandle if none is present.
func HandleFrom(ctx context.Context) (*google.Handle, error) {
	h, ok := ctx.Value(HandleKey).(*google.Handle)
	if !ok || h == nil {
		log.Trace("calendar handle not found in context")
		return nil, ErrNoHandle
	}
	return h, nil
}

// BindHandle attaches a handle from source to every request passing through.
// When the source fails the error response is written and next is skipped.
func BindHandle(source HandleSource) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h, err := source.Handle(r.Context())
			if err != nil {
				log.Debugf("unable to bind calendar handle for %s: %v", r.URL.Path, err)
				google.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithHandle(r.Context(), h)))
		})
	}
}
