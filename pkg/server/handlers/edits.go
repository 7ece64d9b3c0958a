package handlers

import (
	"fmt"
	"net/http"
	"strconv"
)

const (
	msgHistoryDisabled = "edit history is not configured"
	msgInvalidLimit    = "limit must be a whole number between 1 and %d"
	msgHistoryFailed   = "failed to list edits"

	maxEditsLimit = 100
)

func BuildEditsHandler(opts *Options) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if opts.History == nil {
			writeJSON(w, opts, http.StatusNotFound, errorResponse{Detail: msgHistoryDisabled})
			return
		}

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			var err error
			limit, err = strconv.Atoi(raw)
			if err != nil || limit < 1 || limit > maxEditsLimit {
				writeJSON(w, opts, http.StatusBadRequest, errorResponse{Detail: fmt.Sprintf(msgInvalidLimit, maxEditsLimit)})
				return
			}
		}

		edits, err := opts.History.Recent(r.Context(), limit)
		if err != nil {
			writeError(w, opts, err, msgHistoryFailed)
			return
		}

		writeJSON(w, opts, http.StatusOK, map[string]any{"edits": edits})
	}
}
