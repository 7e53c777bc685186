package auth

import (
	"encoding/json"
	"net/http"
)

// failureBody is the constant JSON body of a failure response. It never
// carries the token or the reason it was rejected.
type failureBody struct {
	Error string `json:"error"`
}

// UnauthorizedHandler answers requests that reached a protected route without
// a valid identity: 401 with a Bearer challenge.
func UnauthorizedHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("WWW-Authenticate", `Bearer`)
		writeFailure(w, http.StatusUnauthorized, "unauthorized")
	})
}

// ForbiddenHandler answers authenticated requests whose identity lacks a
// required authority: 403.
func ForbiddenHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeFailure(w, http.StatusForbidden, "forbidden")
	})
}

func writeFailure(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(failureBody{Error: code})
}
