package utils

import (
	"fmt"
	"net/http"
	"time"
)

// CacheFor lets shared caches keep the response for d. Durations under a
// second disable caching.
func CacheFor(w http.ResponseWriter, d time.Duration) {
	if d < time.Second {
		NoStore(w)
		return
	}

	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int64(d/time.Second)))
}

// NoStore is for responses that describe a single upload or edit.
func NoStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
}
