package server

import (
	"fmt"
	"net/http"

	"github.com/charlieegan3/metadata-console/pkg/server/handlers"
	"github.com/charlieegan3/metadata-console/pkg/server/middlewares"
)

func newMux(opts *handlers.Options) (http.Handler, error) {
	mux := http.NewServeMux()

	stylesEtag, stylesHandler, err := handlers.BuildCSSHandler(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to build styles handler: %w", err)
	}

	scriptETag, scriptHandler, err := handlers.BuildJSHandler(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to build script handler: %w", err)
	}

	opts.EtagStyles = stylesEtag
	opts.EtagScript = scriptETag

	indexHandler, err := handlers.BuildIndexHandler(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to build index handler: %w", err)
	}

	mux.HandleFunc("GET /health", handlers.BuildHealthHandler(opts))

	mux.Handle("POST /api/exif", middlewares.BuildBodyLimit(http.HandlerFunc(handlers.BuildExtractHandler(opts)), opts))
	mux.Handle("POST /api/exif/edit", middlewares.BuildBodyLimit(http.HandlerFunc(handlers.BuildEditHandler(opts)), opts))

	mux.HandleFunc("GET /api/objects", handlers.BuildObjectListHandler(opts))
	mux.HandleFunc("GET /api/objects/exif", handlers.BuildObjectExtractHandler(opts))
	mux.Handle("POST /api/objects/exif/edit", middlewares.BuildBodyLimit(http.HandlerFunc(handlers.BuildObjectEditHandler(opts)), opts))

	mux.HandleFunc("GET /api/edits", handlers.BuildEditsHandler(opts))

	mux.HandleFunc("GET /app.js", scriptHandler)
	mux.HandleFunc("GET /styles.css", stylesHandler)
	mux.HandleFunc("GET /{$}", indexHandler)

	return middlewares.BuildRequestLogger(mux, opts), nil
}
