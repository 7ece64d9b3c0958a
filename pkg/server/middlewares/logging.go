package middlewares

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/charlieegan3/metadata-console/pkg/server/handlers"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}

	n, err := r.ResponseWriter.Write(b)
	r.bytes += n

	return n, err
}

// BuildRequestLogger logs one line per request. Server errors are logged
// at warn level.
func BuildRequestLogger(h http.Handler, opts *handlers.Options) http.Handler {
	if opts.Logger == nil {
		return h
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}

		h.ServeHTTP(rec, r)

		if rec.status == 0 {
			rec.status = http.StatusOK
		}

		entry := opts.Logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"bytes":    rec.bytes,
			"duration": time.Since(start).String(),
		})

		if rec.status >= http.StatusInternalServerError {
			entry.Warn("request failed")
			return
		}

		entry.Debug("request")
	})
}
