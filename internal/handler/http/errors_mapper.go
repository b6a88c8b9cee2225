package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/go-proc-box/internal/app"
	"github.com/MKhiriev/go-proc-box/internal/logger"
	"github.com/MKhiriev/go-proc-box/internal/service"
)

// errorStatuses is checked in order, so specific errors come before the
// taxonomy sentinels they wrap.
var errorStatuses = []struct {
	err    error
	status int
}{
	{app.ErrNoSuchUser, http.StatusUnauthorized},
	{service.ErrTokenIsExpiredOrInvalid, http.StatusUnauthorized},
	{app.ErrNotAuthenticated, http.StatusUnauthorized},
	{app.ErrNotAuthorized, http.StatusForbidden},
	{app.ErrNotFound, http.StatusNotFound},
	{app.ErrAlreadyExists, http.StatusConflict},
	{app.ErrInvalidArgument, http.StatusBadRequest},
	{app.ErrToolFailure, http.StatusUnprocessableEntity},
	{app.ErrChannelDeliveryFailure, http.StatusServiceUnavailable},
	{service.ErrCounterContention, http.StatusServiceUnavailable},
}

func statusFromError(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// writeError answers with the status and client-facing reason for err. The
// full error only goes to the log.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFromError(err)

	log := logger.FromRequest(r)
	event := log.Info()
	if status >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.Err(err).Int("status", status).Msg("request failed")

	http.Error(w, app.ReasonFor(err), status)
}
