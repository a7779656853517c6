package rest

import "net/http"

// Healthz returns 204 to indicate the service is healthy.
func (p *BrawlerAPI) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
