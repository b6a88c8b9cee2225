package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID, h.withLogging, withGZip)

	// routes without authorization
	router.Group(func(r chi.Router) {
		r.Get("/api/version/", h.getServerVersion)
		r.Post("/api/user/login", h.login)
	})

	router.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Post("/api/users", h.addUser)
		r.Delete("/api/users/{email}", h.deleteUser)
		r.Get("/api/users/admins", h.getAdminEmails)
		r.Get("/api/users/common", h.getCommonEmails)

		r.With(h.verifyContentHash).Put("/api/files/{name}", h.uploadFile)
		r.Get("/api/files", h.listFiles)
		r.Get("/api/files/content", h.downloadFile)
		r.Delete("/api/files", h.deleteFile)

		r.Get("/api/outputs", h.downloadOutput)
		r.Delete("/api/outputs", h.deleteOutput)

		r.Get("/api/tools", h.listTools)
		r.Post("/api/processing/requests", h.submitRequest)
		r.Get("/api/processing/completions/next", h.nextCompletion)
	})

	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}
