// Package dashboard serves the single-page view of the latest rankings and
// nickname history. The page polls the JSON API; it holds no state itself.
package dashboard

import (
	"net/http"
)

// Handler writes the dashboard page.
func Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write([]byte(dashboardHTML))
}
