package session

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Gateward/GW-Backend/internal/middleware"
	"github.com/Gateward/GW-Backend/internal/utils"
)

// Handlers exposes the per-session variable store and session introspection.
type Handlers struct {
	m *Manager
}

func NewHandlers(m *Manager) *Handlers { return &Handlers{m: m} }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[session] failed to encode response: %v", err)
	}
}

// InfoHandler returns the caller's session row.
func (h *Handlers) InfoHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := utils.GetSessionIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: missing session in context", http.StatusUnauthorized)
		return
	}
	s, st := h.m.Lookup(sessionID)
	if st != StatusValid {
		http.Error(w, "Couldn't find session", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *Handlers) GetVariableHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := utils.GetSessionIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: missing session in context", http.StatusUnauthorized)
		return
	}
	id := chi.URLParam(r, "id")
	value, found, err := h.m.GetVariable(sessionID, id)
	if err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	if !found {
		http.Error(w, "Variable not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, Variable{ID: id, Value: value})
}

func (h *Handlers) SetVariableHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := utils.GetSessionIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: missing session in context", http.StatusUnauthorized)
		return
	}
	var input struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.m.SetVariable(sessionID, id, input.Value); err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, Variable{ID: id, Value: input.Value})
}

func (h *Handlers) DeleteVariableHandler(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := utils.GetSessionIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: missing session in context", http.StatusUnauthorized)
		return
	}
	if err := h.m.DeleteVariable(sessionID, chi.URLParam(r, "id")); err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetupRoutes mounts the session endpoints behind the session middleware.
func (h *Handlers) SetupRoutes() http.Handler {
	r := chi.NewRouter()

	cookies := middleware.SessionCookieNames{ID: h.m.Config().Key}
	if h.m.Config().Secured {
		cookies.Token = h.m.Config().Key + "_token"
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(h.m, cookies, h.m.Clock()))
		r.Get("/", h.InfoHandler)
		r.Get("/vars/{id}", h.GetVariableHandler)
		r.Put("/vars/{id}", h.SetVariableHandler)
		r.Delete("/vars/{id}", h.DeleteVariableHandler)
	})

	return r
}
