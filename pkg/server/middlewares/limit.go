package middlewares

import (
	"net/http"

	"github.com/charlieegan3/metadata-console/pkg/server/handlers"
)

// formOverheadBytes is allowed on top of the upload limit for multipart
// boundaries and the other form fields.
const formOverheadBytes = 1 << 20

// BuildBodyLimit caps request bodies so that oversized uploads fail while
// the form is parsed rather than after they are buffered.
func BuildBodyLimit(h http.Handler, opts *handlers.Options) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if opts.MaxUploadBytes > 0 && r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, opts.MaxUploadBytes+formOverheadBytes)
		}

		h.ServeHTTP(w, r)
	})
}
