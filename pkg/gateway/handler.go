package gateway

import "net/http"

// ServeHTTP answers OPTIONS with an empty 200 and proxies every other
// method using the url query parameter. CORS headers are added by
// middleware.CORS in front of this handler.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	resp := g.Do(r.Context(), r.URL.Query().Get("url"))
	writeJSON(w, resp.Status, resp.Body)
}
