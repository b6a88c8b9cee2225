package http

import (
	"bytes"
	"crypto/subtle"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/MKhiriev/go-proc-box/internal/app"
	"github.com/MKhiriev/go-proc-box/internal/logger"
	"github.com/MKhiriev/go-proc-box/internal/utils"
)

// verifyContentHash rejects uploads whose body does not match the digest in
// [utils.ContentHashHeader]. Requests without the header pass through unchecked.
// The body is buffered up to [MaxUploadSize] and handed on unchanged.
func (h *Handler) verifyContentHash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		declared := strings.ToLower(strings.TrimSpace(r.Header.Get(utils.ContentHashHeader)))
		if declared == "" {
			next.ServeHTTP(w, r)
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxUploadSize))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, app.MsgInvalidDataProvided, http.StatusRequestEntityTooLarge)
				return
			}
			writeError(w, r, err)
			return
		}

		computed := utils.ContentHash(body)
		if subtle.ConstantTimeCompare([]byte(computed), []byte(declared)) != 1 {
			logger.FromRequest(r).Warn().
				Str("declared", declared).
				Str("computed", computed).
				Msg("upload integrity check failed")
			writeError(w, r, ErrContentHashMismatch)
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}
