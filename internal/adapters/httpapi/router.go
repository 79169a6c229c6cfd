package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewRouter wires routes and baseline middleware around the handlers. The
// adapter stays thin: decode, delegate to a service, encode.
func NewRouter(s *Server, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(NewLoggingMiddleware(log))
	r.Use(NewIdentityMiddleware())

	// Health endpoint is unauthenticated, for infra checks.
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/groups", func(r chi.Router) {
		r.Post("/", s.handleCreateGroup)
		r.Get("/", s.handleBrowseGroups)
		r.Route("/{groupId}", func(r chi.Router) {
			r.Get("/", s.handleGroupDetail)
			r.Patch("/", s.handleUpdateGroup)
			r.Delete("/", s.handleDeleteGroup)
			r.Post("/leave", s.handleLeaveGroup)
			r.Route("/join-applies", func(r chi.Router) {
				r.Post("/", s.handleApplyJoin)
				r.Delete("/", s.handleCancelJoin)
				r.Get("/", s.handleListPending)
				r.Post("/{userId}/approve", s.handleApproveJoin)
				r.Post("/{userId}/reject", s.handleRejectJoin)
			})
		})
	})

	r.Post("/travels", s.handleSaveTravel)
	r.Get("/users/me", s.handleMe)

	return r
}
