package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"

	"github.com/charlieegan3/metadata-console/pkg/utils"
)

//go:embed static/*
var staticContent embed.FS

//go:embed templates/*
var templates embed.FS

// assets are addressed by ETag from the index, so they never go stale
const assetMaxAge = 366 * 24 * time.Hour

func BuildCSSHandler(opts *Options) (string, func(http.ResponseWriter, *http.Request), error) {
	return buildAssetHandler(opts, "static/css/", []string{"styles.css"}, "text/css", css.Minify)
}

func BuildJSHandler(opts *Options) (string, func(http.ResponseWriter, *http.Request), error) {
	return buildAssetHandler(opts, "static/js/", []string{"app.js"}, "application/javascript", js.Minify)
}

// buildAssetHandler concatenates files in order, minifying the result
// unless in dev mode, and serves it with an ETag of its contents.
func buildAssetHandler(
	opts *Options,
	dir string,
	sourceFileOrder []string,
	contentType string,
	minifyFunc minify.MinifierFunc,
) (string, func(http.ResponseWriter, *http.Request), error) {
	var bs []byte

	for _, f := range sourceFileOrder {
		fileBytes, err := staticContent.ReadFile(dir + f)
		if err != nil {
			return "", nil, fmt.Errorf("failed to read %s: %w", f, err)
		}

		bs = append(bs, fileBytes...)
		bs = append(bs, []byte("\n")...)
	}

	in := bytes.NewBuffer(bs)
	out := bytes.NewBuffer([]byte{})
	if opts.DevMode {
		out = in
	} else {
		m := minify.New()
		m.AddFunc(contentType, minifyFunc)

		if err := m.Minify(contentType, out, in); err != nil {
			return "", nil, fmt.Errorf("failed to minify %s: %w", contentType, err)
		}
	}

	etag := utils.CRC32Hash(out.Bytes())

	return etag, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("ETag", etag)
		if !opts.DevMode {
			utils.CacheFor(w, assetMaxAge)
		}

		_, err := w.Write(out.Bytes())
		if err != nil {
			opts.log().WithError(err).Debug("failed to write asset")
		}
	}, nil
}

// BuildIndexHandler renders the page once, referencing the current asset
// ETags so that cached assets are replaced on change.
func BuildIndexHandler(opts *Options) (func(http.ResponseWriter, *http.Request), error) {
	tmpl, err := template.ParseFS(templates, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	buf := bytes.NewBuffer([]byte{})
	err = tmpl.ExecuteTemplate(buf, "index", struct {
		Opts      *Options
		MaxUpload string
	}{
		Opts:      opts,
		MaxUpload: utils.HumanizeBytes(opts.MaxUploadBytes),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render index: %w", err)
	}

	page := buf.Bytes()
	if !opts.DevMode {
		m := minify.New()
		m.AddFunc("text/html", html.Minify)

		page, err = m.Bytes("text/html", page)
		if err != nil {
			return nil, fmt.Errorf("failed to minify index: %w", err)
		}
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if opts.DevMode {
			utils.NoStore(w)
		}

		_, err := w.Write(page)
		if err != nil {
			opts.log().WithError(err).Debug("failed to write index")
		}
	}, nil
}
