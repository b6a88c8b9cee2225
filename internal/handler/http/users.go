package http

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MKhiriev/go-proc-box/internal/app"
	"github.com/MKhiriev/go-proc-box/internal/logger"
	"github.com/MKhiriev/go-proc-box/internal/session"
	"github.com/MKhiriev/go-proc-box/internal/utils"
	"github.com/MKhiriev/go-proc-box/models"
)

// login checks the credentials and answers with the user record and a bearer
// token in the Authorization header.
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.LoginRequest
	if err := utils.ReadJSON(r, &req); err != nil {
		writeError(w, r, fmt.Errorf("%w: %w", app.ErrInvalidArgument, err))
		return
	}
	if err := h.validator.Validate(ctx, req); err != nil {
		writeError(w, r, err)
		return
	}

	sess := session.New()
	if err := h.services.CatalogService.Login(ctx, sess, req.Email, req.Password); err != nil {
		writeError(w, r, err)
		return
	}

	token, err := h.services.CatalogService.CreateToken(ctx, sess)
	if err != nil {
		writeError(w, r, err)
		return
	}

	userID, isAdmin, _ := sess.Snapshot()
	logger.FromRequest(r).Info().Str("user_id", userID).Msg("user logged in")

	w.Header().Set("Authorization", "Bearer "+token.SignedString)
	utils.WriteJSON(w, models.User{ID: userID, Email: req.Email, IsAdmin: isAdmin}, http.StatusOK)
}

func (h *Handler) addUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)
	if err := sess.RequireAdmin(); err != nil {
		writeError(w, r, err)
		return
	}

	var req models.AddUserRequest
	if err := utils.ReadJSON(r, &req); err != nil {
		writeError(w, r, fmt.Errorf("%w: %w", app.ErrInvalidArgument, err))
		return
	}
	if err := h.validator.Validate(ctx, req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.services.CatalogService.AddUser(ctx, sess, req.Email, req.Password, req.IsAdmin)
	if err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, user, http.StatusCreated)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	err := h.services.CatalogService.DeleteUser(ctx, session.FromContext(ctx), chi.URLParam(r, "email"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getAdminEmails(w http.ResponseWriter, r *http.Request) {
	emails, err := h.services.CatalogService.GetAdminEmails(r.Context(), session.FromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, emails, http.StatusOK)
}

func (h *Handler) getCommonEmails(w http.ResponseWriter, r *http.Request) {
	emails, err := h.services.CatalogService.GetCommonEmails(r.Context(), session.FromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, emails, http.StatusOK)
}
