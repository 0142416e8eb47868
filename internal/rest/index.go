package rest

import (
	"bytes"
	"html/template"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
)

var indexTemplate = template.Must(template.New("index").Parse(`
<html>
  <body>
    <p>Go to <a href="{{.Host}}/oauth2">Oauth2</a> or <a href="{{.Host}}/with-service/events">Service Account</a></p>
  </body>
</html>
`))

// IndexHandler serves the landing page linking to both authentication flows.
type IndexHandler struct {
	page []byte
}

func NewIndexHandler(host string) (*IndexHandler, error) {
	var buf bytes.Buffer
	err := indexTemplate.Execute(&buf, struct{ Host string }{Host: strings.TrimSuffix(host, "/")})
	if err != nil {
		return nil, err
	}
	return &IndexHandler{page: buf.Bytes()}, nil
}

func (h *IndexHandler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(h.page); err != nil {
		log.Errorf("failed to write index page: %v", err)
	}
}
