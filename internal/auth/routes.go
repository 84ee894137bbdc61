package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Gateward/GW-Backend/internal/middleware"
)

// SetupRoutes mounts the auth endpoints. Credential endpoints sit behind a
// per-IP rate limit on top of the per-account locking policy.
func (h *Handlers) SetupRoutes() http.Handler {
	r := chi.NewRouter()

	cookies := middleware.SessionCookieNames{ID: h.sessions.Config().Key}
	if h.sessions.Config().Secured {
		cookies.Token = h.sessions.Config().Key + "_token"
	}

	r.Group(func(r chi.Router) {
		r.Use(h.limiter.Middleware)
		r.Post("/login", h.LoginHandler)
		r.Post("/register", h.RegisterHandler)
		r.Post("/register/confirm", h.RegisterConfirmHandler)
		r.Post("/recover", h.RecoverHandler)
		r.Post("/recover/confirm", h.RecoverConfirmHandler)
		r.Post("/unlock/request", h.UnlockRequestHandler)
		r.Post("/unlock/confirm", h.UnlockConfirmHandler)
	})

	r.Post("/logout", h.LogoutHandler)
	r.Post("/prolong", h.ProlongHandler)

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(h.sessions, cookies, h.sessions.Clock()))
		r.Get("/me", h.MeHandler)
		r.Post("/password", h.UpdatePasswordHandler)
		r.Post("/email", h.ChangeEmailHandler)
		r.Post("/email/confirm", h.ChangeEmailConfirmHandler)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RoleMiddleware("admin"))
			r.Post("/lock", h.LockHandler)
			r.Post("/unlock", h.UnlockHandler)
			r.Get("/log", h.AuthlogHandler)
		})
	})

	return r
}
