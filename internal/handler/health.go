package handler

import "net/http"

// HandleHealth answers GET / so load balancers and humans can see the
// process is up. It does not touch the store.
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"message": "Scoreboard API is running",
	})
}
