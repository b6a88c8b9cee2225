// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MKhiriev/go-proc-box/internal/app"
	"github.com/MKhiriev/go-proc-box/internal/session"
	"github.com/MKhiriev/go-proc-box/internal/utils"
	"github.com/MKhiriev/go-proc-box/models"
)

// uploadFile stores the raw request body as the caller's file {name}.
// ?overwrite=true replaces an existing file of the same name.
func (h *Handler) uploadFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)
	if err := sess.RequireLogin(); err != nil {
		writeError(w, r, err)
		return
	}

	overwrite := false
	if raw := r.URL.Query().Get("overwrite"); raw != "" {
		var err error
		if overwrite, err = strconv.ParseBool(raw); err != nil {
			writeError(w, r, fmt.Errorf("%w: overwrite: %w", app.ErrInvalidArgument, err))
			return
		}
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

	uri, err := h.services.ContentService.AddFile(ctx, sess, chi.URLParam(r, "name"), bytes.NewReader(body), overwrite)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, models.AddressResponse{URI: uri}, http.StatusCreated)
}

func (h *Handler) listFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.services.ContentService.ListFileMetadata(r.Context(), session.FromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, files, http.StatusOK)
}

func (h *Handler) downloadFile(w http.ResponseWriter, r *http.Request) {
	uri := r.URL.Query().Get("uri")

	content, err := h.services.ContentService.GetFile(r.Context(), session.FromContext(r.Context()), uri)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeContent(w, utils.ContentTypeByName(uri), content)
}

func (h *Handler) deleteFile(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.services.ContentService.DeleteFile(r.Context(), session.FromContext(r.Context()), r.URL.Query().Get("uri"))
	switch {
	case err != nil:
		writeError(w, r, err)
	case !deleted:
		writeError(w, r, app.ErrFileNotFound)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) downloadOutput(w http.ResponseWriter, r *http.Request) {
	content, err := h.services.ContentService.GetOutput(r.Context(), session.FromContext(r.Context()), r.URL.Query().Get("uri"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeContent(w, utils.DefaultContentType, content)
}

func (h *Handler) deleteOutput(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.services.ContentService.DeleteOutput(r.Context(), session.FromContext(r.Context()), r.URL.Query().Get("uri"))
	switch {
	case err != nil:
		writeError(w, r, err)
	case !deleted:
		writeError(w, r, app.ErrOutputNotFound)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeContent(w http.ResponseWriter, contentType string, content []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}
