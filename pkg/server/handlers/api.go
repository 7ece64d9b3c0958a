package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/charlieegan3/metadata-console/pkg/history"
	"github.com/charlieegan3/metadata-console/pkg/metadata"
	"github.com/charlieegan3/metadata-console/pkg/utils"
	"github.com/charlieegan3/metadata-console/pkg/values"
)

const (
	msgEmptyFile        = "the uploaded file is empty"
	msgMissingFile      = "a file must be uploaded in the file field"
	msgFileTooLarge     = "the file exceeds the %s limit"
	msgUpdatesJSON      = "updates must be valid JSON"
	msgUpdatesObject    = "updates must be a JSON object"
	msgRemovalsJSON     = "removals must be a valid JSON array"
	msgRemovalsArray    = "removals must be a JSON array of tag names"
	msgUpdateValue      = "invalid value for EXIF tag %s: %s"
	msgAnalyzeFailed    = "failed to analyze metadata"
	msgEditFailed       = "failed to edit EXIF data"
	multipartMemorySize = 8 << 20
)

// upload is an image sent in the file field of a multipart form.
type upload struct {
	data        []byte
	filename    string
	contentType string
}

// editRequest holds the parsed updates and removals form fields.
type editRequest struct {
	updates  map[string]values.Input
	removals []string
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// requestError is a problem with the request itself, always a 400.
type requestError struct {
	message string
	err     error
}

func (e *requestError) Error() string {
	return e.message
}

func (e *requestError) Unwrap() error {
	return e.err
}

func BuildHealthHandler(opts *Options) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, opts, http.StatusOK, map[string]string{"status": "healthy"})
	}
}

func BuildExtractHandler(opts *Options) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := readUpload(r, opts.MaxUploadBytes)
		if err != nil {
			writeError(w, opts, err, msgAnalyzeFailed)
			return
		}

		result, err := metadata.Extract(u.data, u.filename, u.contentType)
		if err != nil {
			writeError(w, opts, err, msgAnalyzeFailed)
			return
		}

		opts.log().WithFields(logrus.Fields{
			"filename": u.filename,
			"mime":     result.MIME,
			"size":     len(u.data),
			"tags":     len(result.Exif),
		}).Debug("extracted metadata")

		writeJSON(w, opts, http.StatusOK, metadata.NewView(result))
	}
}

func BuildEditHandler(opts *Options) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := readUpload(r, opts.MaxUploadBytes)
		if err != nil {
			writeError(w, opts, err, msgEditFailed)
			return
		}

		req, err := readEditRequest(r)
		if err != nil {
			writeError(w, opts, err, msgEditFailed)
			return
		}

		out, result, err := applyEdit(u, req)
		if err != nil {
			writeError(w, opts, err, msgEditFailed)
			return
		}

		recordEdit(r.Context(), opts, req, history.Edit{
			Filename:   u.filename,
			MIME:       result.MIME,
			InputSize:  int64(len(u.data)),
			OutputSize: int64(len(out)),
		})

		writeJSON(w, opts, http.StatusOK, metadata.NewEditView(out, u.filename, result))
	}
}

func applyEdit(u *upload, req *editRequest) ([]byte, *metadata.Result, error) {
	original, err := metadata.Extract(u.data, u.filename, u.contentType)
	if err != nil {
		return nil, nil, err
	}

	return metadata.Edit(u.data, original, req.updates, req.removals)
}

// recordEdit stores the edit when a history is configured. Failures are
// logged and do not fail the request.
func recordEdit(ctx context.Context, opts *Options, req *editRequest, e history.Edit) {
	if opts.History == nil {
		return
	}

	var err error
	e.Updates, err = json.Marshal(req.updates)
	if err != nil {
		opts.log().WithError(err).Error("failed to encode updates for history")
		return
	}

	e.Removals, err = json.Marshal(req.removals)
	if err != nil {
		opts.log().WithError(err).Error("failed to encode removals for history")
		return
	}

	if _, err := opts.History.Record(ctx, e); err != nil {
		opts.log().WithError(err).WithField("filename", e.Filename).Error("failed to record edit")
	}
}

func readUpload(r *http.Request, maxBytes int64) (*upload, error) {
	err := r.ParseMultipartForm(multipartMemorySize)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, &requestError{message: fmt.Sprintf(msgFileTooLarge, utils.HumanizeBytes(maxBytes)), err: err}
		}
		return nil, &requestError{message: msgMissingFile, err: err}
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		return nil, &requestError{message: msgMissingFile, err: err}
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	if len(data) == 0 {
		return nil, &requestError{message: msgEmptyFile}
	}

	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, &requestError{message: fmt.Sprintf(msgFileTooLarge, utils.HumanizeBytes(maxBytes))}
	}

	return &upload{
		data:        data,
		filename:    header.Filename,
		contentType: header.Header.Get("Content-Type"),
	}, nil
}

// readEditRequest parses the updates and removals form fields. Both are
// optional.
func readEditRequest(r *http.Request) (*editRequest, error) {
	req := &editRequest{
		updates:  map[string]values.Input{},
		removals: []string{},
	}

	if raw := r.FormValue("updates"); raw != "" {
		parsed, err := decodeJSON(raw)
		if err != nil {
			return nil, &requestError{message: msgUpdatesJSON, err: err}
		}

		object, ok := parsed.(map[string]any)
		if !ok {
			return nil, &requestError{message: msgUpdatesObject}
		}

		names := make([]string, 0, len(object))
		for name := range object {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			in, err := values.ParseInput(object[name])
			if err != nil {
				return nil, &requestError{message: fmt.Sprintf(msgUpdateValue, name, err), err: err}
			}
			req.updates[name] = in
		}
	}

	if raw := r.FormValue("removals"); raw != "" {
		parsed, err := decodeJSON(raw)
		if err != nil {
			return nil, &requestError{message: msgRemovalsJSON, err: err}
		}

		list, ok := parsed.([]any)
		if !ok {
			return nil, &requestError{message: msgRemovalsArray}
		}

		for _, item := range list {
			name, ok := item.(string)
			if !ok {
				return nil, &requestError{message: msgRemovalsArray}
			}
			req.removals = append(req.removals, name)
		}
	}

	return req, nil
}

func decodeJSON(raw string) (any, error) {
	dec := json.NewDecoder(bytes.NewBufferString(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}

	if dec.More() {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}

	return v, nil
}

// writeError responds with 400 and the error message for request and
// metadata errors, and with 500 and fallback otherwise.
func writeError(w http.ResponseWriter, opts *Options, err error, fallback string) {
	var (
		reqErr  *requestError
		metaErr *metadata.Error
	)

	switch {
	case errors.As(err, &reqErr):
		opts.log().WithError(err).Debug("bad request")
		writeJSON(w, opts, http.StatusBadRequest, errorResponse{Detail: reqErr.message})
	case errors.As(err, &metaErr):
		opts.log().WithError(err).WithField("cause", metaErr.Err).Info("metadata error")
		writeJSON(w, opts, http.StatusBadRequest, errorResponse{Detail: metaErr.Message})
	default:
		opts.log().WithError(err).Error(fallback)
		writeJSON(w, opts, http.StatusInternalServerError, errorResponse{Detail: fallback})
	}
}

func writeJSON(w http.ResponseWriter, opts *Options, status int, v any) {
	bs, err := json.Marshal(v)
	if err != nil {
		opts.log().WithError(err).Error("failed to encode response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	utils.NoStore(w)
	w.WriteHeader(status)

	_, err = w.Write(bs)
	if err != nil {
		opts.log().WithError(err).Debug("failed to write response")
	}
}
