package httputil

import "net/http"

// JSONHeaders returns headers for JSON API calls.
func JSONHeaders() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")
	h.Set("Accept-Encoding", "gzip, br")
	return h
}

// SetEdgeFunctionAuth adds the anon key headers edge functions expect.
func SetEdgeFunctionAuth(h http.Header, anonKey string) {
	if anonKey == "" {
		return
	}
	h.Set("apikey", anonKey)
	h.Set("Authorization", "Bearer "+anonKey)
}
