package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path"

	"github.com/sirupsen/logrus"

	"github.com/charlieegan3/metadata-console/pkg/container"
	"github.com/charlieegan3/metadata-console/pkg/history"
	"github.com/charlieegan3/metadata-console/pkg/metadata"
	"github.com/charlieegan3/metadata-console/pkg/objects"
	"github.com/charlieegan3/metadata-console/pkg/utils"
)

const (
	msgObjectsDisabled = "object storage is not configured"
	msgMissingKey      = "an object key is required"
	msgObjectNotFound  = "object not found: %s"
	msgObjectFailed    = "failed to load object"
	msgStoreFailed     = "failed to store edited object"
	msgListFailed      = "failed to list objects"
)

type objectEntry struct {
	objects.Object
	MIME      *string `json:"mime"`
	Editable  bool    `json:"editable"`
	HumanSize string  `json:"human_size"`
}

type objectEditResponse struct {
	metadata.EditView
	StoredKey string `json:"stored_key"`
}

// BuildObjectListHandler lists the objects under the prefix query
// parameter, noting which of them can be edited.
func BuildObjectListHandler(opts *Options) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if opts.Objects == nil {
			writeJSON(w, opts, http.StatusNotFound, errorResponse{Detail: msgObjectsDisabled})
			return
		}

		listed, err := opts.Objects.List(r.Context(), r.URL.Query().Get("prefix"))
		if err != nil {
			writeError(w, opts, err, msgListFailed)
			return
		}

		entries := make([]objectEntry, 0, len(listed))
		for _, obj := range listed {
			mimeType := container.GuessMIME(obj.Key, "")

			var mimeField *string
			if mimeType != "" {
				mimeField = &mimeType
			}

			entries = append(entries, objectEntry{
				Object:    obj,
				MIME:      mimeField,
				Editable:  container.SupportsEditing(mimeType),
				HumanSize: utils.HumanizeBytes(obj.Size),
			})
		}

		writeJSON(w, opts, http.StatusOK, map[string]any{"objects": entries})
	}
}

func BuildObjectExtractHandler(opts *Options) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := readObject(w, r, opts, r.URL.Query().Get("key"))
		if !ok {
			return
		}

		result, err := metadata.Extract(u.data, u.filename, u.contentType)
		if err != nil {
			writeError(w, opts, err, msgAnalyzeFailed)
			return
		}

		writeJSON(w, opts, http.StatusOK, metadata.NewView(result))
	}
}

func BuildObjectEditHandler(opts *Options) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.FormValue("key")

		u, ok := readObject(w, r, opts, key)
		if !ok {
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

		storedKey := objects.EditedKey(key)
		err = opts.Objects.Put(r.Context(), storedKey, out, result.MIME)
		if err != nil {
			writeError(w, opts, fmt.Errorf("failed to put %s: %w", storedKey, err), msgStoreFailed)
			return
		}

		opts.log().WithFields(logrus.Fields{
			"key":        key,
			"stored_key": storedKey,
			"size":       len(out),
		}).Info("stored edited object")

		recordEdit(r.Context(), opts, req, history.Edit{
			Filename:   u.filename,
			MIME:       result.MIME,
			SourceKey:  key,
			StoredKey:  storedKey,
			InputSize:  int64(len(u.data)),
			OutputSize: int64(len(out)),
		})

		writeJSON(w, opts, http.StatusOK, objectEditResponse{
			EditView:  metadata.NewEditView(out, u.filename, result),
			StoredKey: storedKey,
		})
	}
}

// readObject loads key from the object store, writing an error response
// and returning false when that is not possible.
func readObject(w http.ResponseWriter, r *http.Request, opts *Options, key string) (*upload, bool) {
	if opts.Objects == nil {
		writeJSON(w, opts, http.StatusNotFound, errorResponse{Detail: msgObjectsDisabled})
		return nil, false
	}

	if key == "" {
		writeJSON(w, opts, http.StatusBadRequest, errorResponse{Detail: msgMissingKey})
		return nil, false
	}

	data, contentType, err := opts.Objects.Get(r.Context(), key)
	if errors.Is(err, objects.ErrNotFound) {
		writeJSON(w, opts, http.StatusNotFound, errorResponse{Detail: fmt.Sprintf(msgObjectNotFound, key)})
		return nil, false
	}
	if err != nil {
		writeError(w, opts, err, msgObjectFailed)
		return nil, false
	}

	if len(data) == 0 {
		writeJSON(w, opts, http.StatusBadRequest, errorResponse{Detail: msgEmptyFile})
		return nil, false
	}

	return &upload{
		data:        data,
		filename:    path.Base(key),
		contentType: contentType,
	}, true
}
