package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/MKhiriev/go-proc-box/internal/app"
	"github.com/MKhiriev/go-proc-box/internal/session"
	"github.com/MKhiriev/go-proc-box/internal/utils"
	"github.com/MKhiriev/go-proc-box/models"
)

// listTools answers with the tools applicable to ?content_type=.
func (h *Handler) listTools(w http.ResponseWriter, r *http.Request) {
	contentType := utils.NormalizeContentType(r.URL.Query().Get("content_type"))
	utils.WriteJSON(w, h.services.ProcessingService.AvailableTools(contentType), http.StatusOK)
}

func (h *Handler) submitRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)
	if err := sess.RequireLogin(); err != nil {
		writeError(w, r, err)
		return
	}

	var req models.ProcessingRequest
	if err := utils.ReadJSON(r, &req); err != nil {
		writeError(w, r, fmt.Errorf("%w: %w", app.ErrInvalidArgument, err))
		return
	}
	if err := h.validator.Validate(ctx, req); err != nil {
		writeError(w, r, err)
		return
	}

	msg, err := h.services.ProcessingService.SubmitRequest(ctx, sess, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, msg, http.StatusAccepted)
}

// nextCompletion hands one completion to an administrator. ?wait= (a Go
// duration, capped by the request timeout) long-polls for it; 204 means none
// arrived.
func (h *Handler) nextCompletion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var wait time.Duration
	if raw := r.URL.Query().Get("wait"); raw != "" {
		var err error
		if wait, err = time.ParseDuration(raw); err != nil || wait < 0 {
			writeError(w, r, fmt.Errorf("%w: wait %q", app.ErrInvalidArgument, raw))
			return
		}
	}
	if h.requestTimeout > 0 && wait > h.requestTimeout {
		wait = h.requestTimeout
	}

	msg, ok, err := h.services.ProcessingService.NextCompletion(ctx, session.FromContext(ctx), wait)
	switch {
	case err != nil:
		writeError(w, r, err)
	case !ok:
		w.WriteHeader(http.StatusNoContent)
	default:
		utils.WriteJSON(w, msg, http.StatusOK)
	}
}
