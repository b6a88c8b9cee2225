// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-proc-box/internal/config"
	"github.com/MKhiriev/go-proc-box/internal/logger"
	"github.com/MKhiriev/go-proc-box/internal/utils"
	"github.com/MKhiriev/go-proc-box/models"
)

func newTestAdapter(t *testing.T, serverURL string) *httpServerAdapter {
	t.Helper()
	a, err := NewHTTPServerAdapter(config.ClientAdapter{HTTPAddress: serverURL, RequestTimeout: 5 * time.Second}, logger.Nop())
	require.NoError(t, err)
	return a.(*httpServerAdapter)
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: "localhost:8080", want: "http://localhost:8080"},
		{raw: " https://proc.box/ ", want: "https://proc.box"},
		{raw: "", wantErr: true},
		{raw: "http://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := normalizeBaseURL(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLogin_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/user/login", r.URL.Path)

		var req models.LoginRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, models.LoginRequest{Email: "alice@proc.box", Password: "pw"}, req)

		w.Header().Set("Authorization", "Bearer the-token")
		utils.WriteJSON(w, models.User{ID: "u0000000000000001", Email: req.Email}, http.StatusOK)
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	user, err := a.Login(context.Background(), "alice@proc.box", "pw")

	require.NoError(t, err)
	assert.Equal(t, "u0000000000000001", user.ID)
	assert.Equal(t, "the-token", a.Token())
}

func TestLogin_MissingToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, models.User{}, http.StatusOK)
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	_, err := a.Login(context.Background(), "alice@proc.box", "pw")

	require.Error(t, err)
	assert.Empty(t, a.Token())
}

func TestMapHTTPError(t *testing.T) {
	tests := []struct {
		status  int
		wantErr error
	}{
		{http.StatusBadRequest, ErrBadRequest},
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusConflict, ErrConflict},
		{http.StatusRequestEntityTooLarge, ErrTooLarge},
		{http.StatusUnprocessableEntity, ErrToolFailed},
		{http.StatusServiceUnavailable, ErrUnavailable},
		{http.StatusInternalServerError, ErrInternalServerError},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "reason text", tt.status)
			}))
			defer srv.Close()

			err := newTestAdapter(t, srv.URL).DeleteFile(context.Background(), "files/u1/a.txt")

			require.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), "reason text")
		})
	}
}

func TestMapHTTPError_UnknownStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	_, err := newTestAdapter(t, srv.URL).ListFiles(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "http 418")
}

func TestUploadFile_SendsDigestAndToken(t *testing.T) {
	body := []byte("quarterly numbers")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/files/report q1.txt", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("overwrite"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, utils.ContentHash(body), r.Header.Get(utils.ContentHashHeader))

		got, _ := io.ReadAll(r.Body)
		assert.Equal(t, body, got)

		utils.WriteJSON(w, models.AddressResponse{URI: "files/u1/report q1.txt"}, http.StatusCreated)
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	a.SetToken(" tok ")
	uri, err := a.UploadFile(context.Background(), "report q1.txt", body, true)

	require.NoError(t, err)
	assert.Equal(t, "files/u1/report q1.txt", uri)
}

func TestDownloadFile_PassesURI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/files/content", r.URL.Path)
		assert.Equal(t, "files/u1/a&b.txt", r.URL.Query().Get("uri"))
		_, _ = w.Write([]byte("raw bytes"))
	}))
	defer srv.Close()

	got, err := newTestAdapter(t, srv.URL).DownloadFile(context.Background(), "files/u1/a&b.txt")

	require.NoError(t, err)
	assert.Equal(t, []byte("raw bytes"), got)
}

func TestNextCompletion(t *testing.T) {
	tests := []struct {
		name     string
		wait     time.Duration
		wantWait string
		status   int
		wantOK   bool
	}{
		{name: "completion ready", wait: 250 * time.Millisecond, wantWait: "250ms", status: http.StatusOK, wantOK: true},
		{name: "nothing yet", status: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/processing/completions/next", r.URL.Path)
				assert.Equal(t, tt.wantWait, r.URL.Query().Get("wait"))
				if tt.status == http.StatusNoContent {
					w.WriteHeader(http.StatusNoContent)
					return
				}
				utils.WriteJSON(w, models.ProcessingMessage{ID: "m1", OutputURI: "outputs/x"}, tt.status)
			}))
			defer srv.Close()

			msg, ok, err := newTestAdapter(t, srv.URL).NextCompletion(context.Background(), tt.wait)

			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, "m1", msg.ID)
			}
		})
	}
}
