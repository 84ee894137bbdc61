package auth

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/Gateward/GW-Backend/internal/authlog"
	"github.com/Gateward/GW-Backend/internal/config"
	"github.com/Gateward/GW-Backend/internal/confirm"
	"github.com/Gateward/GW-Backend/internal/i18n"
	"github.com/Gateward/GW-Backend/internal/middleware"
	"github.com/Gateward/GW-Backend/internal/session"
	"github.com/Gateward/GW-Backend/internal/utils"
)

// Handlers binds the HTTP layer to the auth engine. All policy outcomes
// arrive here as typed results and get mapped to status codes; nothing
// below this layer writes HTTP.
type Handlers struct {
	svc      *Service
	sessions *session.Manager
	confirms *confirm.Service
	cfg      *config.Config
	limiter  *middleware.RateLimiter
}

func NewHandlers(svc *Service, sessions *session.Manager, confirms *confirm.Service, cfg *config.Config) *Handlers {
	return &Handlers{
		svc:      svc,
		sessions: sessions,
		confirms: confirms,
		cfg:      cfg,
		limiter:  middleware.NewRateLimiter(cfg.Auth.RatePerMinute, cfg.Auth.RateBurst),
	}
}

// Close stops the rate limiter's background sweeper.
func (h *Handlers) Close() {
	h.limiter.Close()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[auth] failed to encode response: %v", err)
	}
}

func (h *Handlers) setSessionCookies(w http.ResponseWriter, s *session.Session) {
	cfg := h.sessions.Config()
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Key,
		Value:    s.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   cfg.Secured,
	})
	if cfg.Secured {
		// The secret half of the session never travels without the Secure
		// attribute.
		http.SetCookie(w, &http.Cookie{
			Name:     cfg.Key + "_token",
			Value:    s.SecureToken,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Secure:   true,
		})
	}
}

func (h *Handlers) clearSessionCookies(w http.ResponseWriter) {
	cfg := h.sessions.Config()
	http.SetCookie(w, &http.Cookie{Name: cfg.Key, Value: "", MaxAge: -1, Path: "/"})
	if cfg.Secured {
		http.SetCookie(w, &http.Cookie{Name: cfg.Key + "_token", Value: "", MaxAge: -1, Path: "/"})
	}
}

func (h *Handlers) requestSession(r *http.Request) (id, token string) {
	cfg := h.sessions.Config()
	if c, err := r.Cookie(cfg.Key); err == nil {
		id = c.Value
	}
	if cfg.Secured {
		if c, err := r.Cookie(cfg.Key + "_token"); err == nil {
			token = c.Value
		}
	}
	return id, token
}

func (h *Handlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if input.Email == "" || input.Password == "" {
		http.Error(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	result, sess := h.svc.Authenticate(input.Email, input.Password, utils.ClientIP(r))
	switch result {
	case ResultOK:
		h.setSessionCookies(w, sess)
		writeJSON(w, http.StatusOK, map[string]string{"result": string(result)})
	case ResultBadPassword:
		http.Error(w, i18n.T(r, "bad-credentials"), http.StatusUnauthorized)
	case ResultSoftLocked:
		// The lock wait depends on the account's own type; the result only
		// occurs for existing users, so the cache-backed lookup is cheap.
		accountType := h.cfg.DefaultAccountType
		if u, exists, err := h.svc.FindByEmail(input.Email); err == nil && exists {
			accountType = u.AccountType
		}
		policy := h.svc.Policy(accountType)
		w.Header().Set("Retry-After", strconv.Itoa(int(policy.LockWait.Seconds())))
		http.Error(w, i18n.T(r, "soft-locked"), http.StatusLocked)
	case ResultLocked:
		http.Error(w, i18n.T(r, "locked"), http.StatusLocked)
	default:
		http.Error(w, i18n.T(r, "session-error"), http.StatusInternalServerError)
	}
}

func (h *Handlers) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	id, _ := h.requestSession(r)
	if id == "" {
		http.Error(w, "Couldn't find cookie", http.StatusUnauthorized)
		return
	}
	if err := h.sessions.Destroy(id); err != nil {
		http.Error(w, "Failed to destroy session", http.StatusInternalServerError)
		return
	}
	h.clearSessionCookies(w)
	writeJSON(w, http.StatusOK, map[string]string{"result": "logged-out"})
}

func (h *Handlers) MeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: missing user ID in context", http.StatusUnauthorized)
		return
	}
	user, err := h.svc.FindByID(userID)
	if err != nil {
		http.Error(w, "Couldn't find user", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ProlongHandler refreshes a soft-expired session. If the session parked a
// redirect target in the "goto" variable, it is handed back so the client
// can resume it.
func (h *Handlers) ProlongHandler(w http.ResponseWriter, r *http.Request) {
	id, token := h.requestSession(r)
	if id == "" {
		http.Error(w, "Couldn't find cookie", http.StatusUnauthorized)
		return
	}

	sess, err := h.sessions.Prolong(id, token, utils.ClientIP(r))
	if errors.Is(err, session.ErrNotProlongable) {
		h.clearSessionCookies(w)
		http.Error(w, i18n.T(r, "session-expired"), http.StatusUnauthorized)
		return
	}
	if err != nil {
		http.Error(w, "Couldn't find session", http.StatusUnauthorized)
		return
	}

	response := map[string]string{"result": "prolonged"}
	if target, ok, _ := h.sessions.GetVariable(sess.ID, "goto"); ok {
		response["goto"] = target
		_ = h.sessions.DeleteVariable(sess.ID, "goto")
	}
	h.setSessionCookies(w, sess)
	writeJSON(w, http.StatusOK, response)
}

func failureStatus(f confirm.Failure) int {
	switch f {
	case confirm.FailNotFound:
		return http.StatusNotFound
	case confirm.FailExpired:
		return http.StatusGone
	case confirm.FailTooMany:
		return http.StatusTooManyRequests
	case confirm.FailExists:
		return http.StatusConflict
	case confirm.FailResult:
		return http.StatusInternalServerError
	case confirm.FailCode, confirm.FailToken:
		return http.StatusUnauthorized
	default:
		return http.StatusBadRequest
	}
}

// RegisterHandler stages a new account and starts the creation
// confirmation flow. The user row is only created once the identity is
// proven.
func (h *Handlers) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		AccountType string `json:"account_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if input.Email == "" || input.Password == "" {
		http.Error(w, "Email and password are required", http.StatusBadRequest)
		return
	}
	if confirm.ClassifyIdentity(input.Email) != confirm.KindEmail {
		http.Error(w, "Invalid email address", http.StatusBadRequest)
		return
	}
	if input.AccountType == "" {
		input.AccountType = h.cfg.DefaultAccountType
	}

	if _, exists, err := h.svc.FindByEmail(input.Email); err != nil {
		http.Error(w, i18n.T(r, "session-error"), http.StatusInternalServerError)
		return
	} else if exists {
		http.Error(w, "Email already registered", http.StatusConflict)
		return
	}

	// Encrypt before staging: the confirmation row must never hold the
	// plaintext.
	chain := h.svc.ChainFor(input.AccountType)
	rec, err := chain.Encrypt(input.Password, config.Settings())
	if err != nil {
		log.Printf("[auth] staging password: %v", err)
		http.Error(w, i18n.T(r, "session-error"), http.StatusInternalServerError)
		return
	}
	staged, err := rec.Marshal()
	if err != nil {
		http.Error(w, i18n.T(r, "session-error"), http.StatusInternalServerError)
		return
	}

	policy := h.cfg.Policy(input.AccountType)
	c, failure, err := h.confirms.Create(input.Email, confirm.ReasonCreation,
		policy.Confirmation.Expires.Std(), policy.Confirmation.MaxAttempts,
		confirm.CreateOptions{
			StagedPassword:    staged,
			StagedSuiteID:     h.svc.SuiteID(input.AccountType),
			StagedAccountType: input.AccountType,
		})
	if err != nil {
		log.Printf("[auth] creating confirmation: %v", err)
		http.Error(w, i18n.T(r, "session-error"), http.StatusInternalServerError)
		return
	}
	if failure != confirm.FailNone {
		http.Error(w, string(failure), failureStatus(failure))
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"result":  "sent",
		"expires": c.Expires,
	})
}

// RegisterConfirmHandler finishes account creation. The confirmation row is
// deleted only after the user row exists, so a failed creation can be
// retried with the same still-valid confirmation.
func (h *Handlers) RegisterConfirmHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result := h.confirms.Verify(input.Email, input.Code, confirm.ReasonCreation)
	if !result.Confirmed {
		writeJSON(w, failureStatus(result.Failure), result)
		return
	}

	row, failure, err := h.confirms.GetConfirmed(input.Email, confirm.ReasonCreation)
	if err != nil {
		http.Error(w, i18n.T(r, "session-error"), http.StatusInternalServerError)
		return
	}
	if failure != confirm.FailNone {
		http.Error(w, string(failure), failureStatus(failure))
		return
	}

	user := User{
		ID:              uuid.NewString(),
		UID:             uuid.NewString(),
		Email:           input.Email,
		AccountType:     row.StagedAccountType,
		Roles:           []string{"user"},
		PasswordSuiteID: row.StagedSuiteID,
		Password:        row.StagedPassword,
	}
	if err := h.svc.db.Create(&user).Error; err != nil {
		var existing User
		if h.svc.db.First(&existing, "email = ?", input.Email).Error == nil {
			// Retried confirm after a prior success: reuse the existing row
			// and fall through to cleanup.
			user = existing
		} else {
			// Creation failed; the still-valid confirmation stays so the
			// client can retry.
			log.Printf("[auth] creating user from confirmation: %v", err)
			http.Error(w, i18n.T(r, "session-error"), http.StatusInternalServerError)
			return
		}
	}

	if err := h.confirms.Delete(input.Email, confirm.ReasonCreation); err != nil {
		log.Printf("[auth] deleting consumed confirmation for %s: %v", input.Email, err)
	}
	writeJSON(w, http.StatusCreated, map[string]string{"uid": user.UID, "email": user.Email})
}

// RecoverHandler starts password recovery. The response is identical
// whether or not the account exists.
func (h *Handlers) RecoverHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if confirm.ClassifyIdentity(input.Email) != confirm.KindEmail {
		http.Error(w, "Invalid email address", http.StatusBadRequest)
		return
	}

	user, exists, err := h.svc.FindByEmail(input.Email)
	if err != nil {
		http.Error(w, i18n.T(r, "session-error"), http.StatusInternalServerError)
		return
	}
	if exists {
		policy := h.cfg.Policy(user.AccountType)
		_, failure, err := h.confirms.Create(input.Email, confirm.ReasonRecovery,
			policy.Confirmation.Expires.Std(), policy.Confirmation.MaxAttempts,
			confirm.CreateOptions{UserID: user.ID})
		if err != nil || (failure != confirm.FailNone && failure != confirm.FailExists) {
			log.Printf("[auth] starting recovery for %s: failure=%s err=%v", input.Email, failure, err)
		}
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"result": "sent"})
}

// RecoverConfirmHandler sets a new password against a proven recovery
// confirmation.
func (h *Handlers) RecoverConfirmHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email       string `json:"email"`
		Code        string `json:"code"`
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if input.NewPassword == "" {
		http.Error(w, "New password is required", http.StatusBadRequest)
		return
	}

	result := h.confirms.Verify(input.Email, input.Code, confirm.ReasonRecovery)
	if !result.Confirmed {
		writeJSON(w, failureStatus(result.Failure), result)
		return
	}

	user, exists, err := h.svc.FindByEmail(input.Email)
	if err != nil || !exists {
		http.Error(w, "Couldn't find user", http.StatusNotFound)
		return
	}
	if err := h.svc.SetPassword(user, input.NewPassword); err != nil {
		log.Printf("[auth] recovery password set for %s: %v", user.ID, err)
		http.Error(w, i18n.T(r, "session-error"), http.StatusInternalServerError)
		return
	}
	if err := h.confirms.Delete(input.Email, confirm.ReasonRecovery); err != nil {
		log.Printf("[auth] deleting consumed recovery confirmation: %v", err)
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "password-changed"})
}

// UpdatePasswordHandler changes the password of the logged-in user after
// re-verifying the current one.
func (h *Handlers) UpdatePasswordHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Current and new password are required", http.StatusBadRequest)
		return
	}
	if input.CurrentPassword == "" || input.NewPassword == "" {
		http.Error(w, "Current and new password are required", http.StatusBadRequest)
		return
	}

	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: missing user ID in context", http.StatusUnauthorized)
		return
	}
	user, err := h.svc.FindByID(userID)
	if err != nil {
		http.Error(w, "Couldn't find user", http.StatusUnauthorized)
		return
	}

	ok, err = h.svc.CheckPassword(user, input.CurrentPassword)
	if err != nil {
		http.Error(w, i18n.T(r, "session-error"), http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "Invalid current password", http.StatusUnauthorized)
		return
	}

	if err := h.svc.SetPassword(user, input.NewPassword); err != nil {
		http.Error(w, i18n.T(r, "session-error"), http.StatusInternalServerError)
		return
	}
	h.clearSessionCookies(w)
	writeJSON(w, http.StatusOK, map[string]string{"result": "password-changed"})
}

// ChangeEmailHandler starts an identity change for the logged-in user. The
// code goes to the new address; the account moves only once it is proven.
func (h *Handlers) ChangeEmailHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		NewEmail string `json:"new_email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if input.NewEmail == "" || input.Password == "" {
		http.Error(w, "New email and password are required", http.StatusBadRequest)
		return
	}
	if confirm.ClassifyIdentity(input.NewEmail) != confirm.KindEmail {
		http.Error(w, "Invalid email address", http.StatusBadRequest)
		return
	}

	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: missing user ID in context", http.StatusUnauthorized)
		return
	}
	user, err := h.svc.FindByID(userID)
	if err != nil {
		http.Error(w, "Couldn't find user", http.StatusUnauthorized)
		return
	}

	ok, err = h.svc.CheckPassword(user, input.Password)
	if err != nil {
		http.Error(w, i18n.T(r, "session-error"), http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "Invalid current password", http.StatusUnauthorized)
		return
	}

	if _, exists, err := h.svc.FindByEmail(input.NewEmail); err != nil {
		http.Error(w, i18n.T(r, "session-error"), http.StatusInternalServerError)
		return
	} else if exists {
		http.Error(w, "Email already registered", http.StatusConflict)
		return
	}

	policy := h.cfg.Policy(user.AccountType)
	_, failure, err := h.confirms.Create(input.NewEmail, confirm.ReasonChange,
		policy.Confirmation.Expires.Std(), policy.Confirmation.MaxAttempts,
		confirm.CreateOptions{UserID: user.ID})
	if err != nil {
		log.Printf("[auth] starting email change for %s: %v", user.ID, err)
		http.Error(w, i18n.T(r, "session-error"), http.StatusInternalServerError)
		return
	}
	if failure != confirm.FailNone {
		http.Error(w, string(failure), failureStatus(failure))
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"result": "sent"})
}

// ChangeEmailConfirmHandler finishes the identity change: the new address is
// proven, the account moves and every session dies, so the client logs back
// in under the new email.
func (h *Handlers) ChangeEmailConfirmHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result := h.confirms.Verify(input.Email, input.Code, confirm.ReasonChange)
	if !result.Confirmed {
		writeJSON(w, failureStatus(result.Failure), result)
		return
	}

	row, failure, err := h.confirms.GetConfirmed(input.Email, confirm.ReasonChange)
	if err != nil {
		http.Error(w, i18n.T(r, "session-error"), http.StatusInternalServerError)
		return
	}
	if failure != confirm.FailNone {
		http.Error(w, string(failure), failureStatus(failure))
		return
	}

	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: missing user ID in context", http.StatusUnauthorized)
		return
	}
	if row.UserID != userID {
		http.Error(w, "Confirmation belongs to another account", http.StatusForbidden)
		return
	}
	user, err := h.svc.FindByID(userID)
	if err != nil {
		http.Error(w, "Couldn't find user", http.StatusNotFound)
		return
	}

	if err := h.svc.SetEmail(user, input.Email); err != nil {
		log.Printf("[auth] email change for %s: %v", user.ID, err)
		http.Error(w, i18n.T(r, "session-error"), http.StatusInternalServerError)
		return
	}
	if err := h.confirms.Delete(input.Email, confirm.ReasonChange); err != nil {
		log.Printf("[auth] deleting consumed email-change confirmation: %v", err)
	}
	h.clearSessionCookies(w)
	writeJSON(w, http.StatusOK, map[string]string{"result": "email-changed", "email": input.Email})
}

// UnlockRequestHandler starts self-service unlock for a soft-locked account.
// The response is identical whether or not the account exists.
func (h *Handlers) UnlockRequestHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if confirm.ClassifyIdentity(input.Email) != confirm.KindEmail {
		http.Error(w, "Invalid email address", http.StatusBadRequest)
		return
	}

	user, exists, err := h.svc.FindByEmail(input.Email)
	if err != nil {
		http.Error(w, i18n.T(r, "session-error"), http.StatusInternalServerError)
		return
	}
	if exists {
		policy := h.cfg.Policy(user.AccountType)
		_, failure, err := h.confirms.Create(input.Email, confirm.ReasonUnlock,
			policy.Confirmation.Expires.Std(), policy.Confirmation.MaxAttempts,
			confirm.CreateOptions{UserID: user.ID})
		if err != nil || (failure != confirm.FailNone && failure != confirm.FailExists) {
			log.Printf("[auth] starting unlock for %s: failure=%s err=%v", input.Email, failure, err)
		}
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"result": "sent"})
}

// UnlockConfirmHandler clears a proven soft lock. Hard locks stay: those are
// administrative and never self-service.
func (h *Handlers) UnlockConfirmHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result := h.confirms.Verify(input.Email, input.Code, confirm.ReasonUnlock)
	if !result.Confirmed {
		writeJSON(w, failureStatus(result.Failure), result)
		return
	}

	user, exists, err := h.svc.FindByEmail(input.Email)
	if err != nil || !exists {
		http.Error(w, "Couldn't find user", http.StatusNotFound)
		return
	}
	if user.Locked != nil {
		http.Error(w, i18n.T(r, "locked"), http.StatusLocked)
		return
	}

	if err := h.svc.Unlock(user.ID, "self-service"); err != nil {
		http.Error(w, i18n.T(r, "session-error"), http.StatusInternalServerError)
		return
	}
	if err := h.confirms.Delete(input.Email, confirm.ReasonUnlock); err != nil {
		log.Printf("[auth] deleting consumed unlock confirmation: %v", err)
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "unlocked"})
}

// LockHandler applies the administrative hard lock.
func (h *Handlers) LockHandler(w http.ResponseWriter, r *http.Request) {
	h.adminLockAction(w, r, h.svc.Lock)
}

// UnlockHandler clears hard and soft locks.
func (h *Handlers) UnlockHandler(w http.ResponseWriter, r *http.Request) {
	h.adminLockAction(w, r, h.svc.Unlock)
}

func (h *Handlers) adminLockAction(w http.ResponseWriter, r *http.Request, action func(userID, adminID string) error) {
	var input struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.UserID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}
	adminID, _ := utils.GetUserIDFromContext(r.Context())
	if err := action(input.UserID, adminID); err != nil {
		http.Error(w, "Couldn't find user", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "ok"})
}

// AuthlogHandler returns recent audit events for one user.
func (h *Handlers) AuthlogHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := authlog.Recent(h.svc.db, userID, limit)
	if err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
