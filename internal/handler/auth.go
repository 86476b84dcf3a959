// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/oblog-go/internal/auth"
	"github.com/olegiv/oblog-go/internal/middleware"
	"github.com/olegiv/oblog-go/internal/render"
	"github.com/olegiv/oblog-go/internal/store"
)

// SessionKeyUserID is the session key for storing the authenticated user ID.
const SessionKeyUserID = middleware.SessionKeyUserID

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// AuthHandler handles registration, login and logout routes.
type AuthHandler struct {
	queries         *store.Queries
	renderer        *render.Renderer
	sessionManager  *scs.SessionManager
	loginProtection *middleware.LoginProtection
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager, lp *middleware.LoginProtection) *AuthHandler {
	return &AuthHandler{
		queries:         store.New(db),
		renderer:        renderer,
		sessionManager:  sm,
		loginProtection: lp,
	}
}

// AuthFormData holds data for the register and login form templates.
type AuthFormData struct {
	Errors     map[string]string
	FormValues map[string]string
}

// RegisterForm handles GET /register - displays the registration form.
func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	if userID := h.sessionManager.GetInt64(r.Context(), SessionKeyUserID); userID > 0 {
		http.Redirect(w, r, RouteRoot, http.StatusSeeOther)
		return
	}

	data := AuthFormData{
		Errors:     make(map[string]string),
		FormValues: make(map[string]string),
	}

	renderOrInternalError(w, r, h.renderer, "register", render.TemplateData{
		Title: "Register",
		Data:  data,
	})
}

// Register handles POST /register - creates an account and signs the user in.
// The first account ever registered becomes the administrator.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		flashError(w, r, h.renderer, RouteRegister, "Invalid form data")
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	name := strings.TrimSpace(r.FormValue("name"))
	password := r.FormValue("password")

	formValues := map[string]string{
		"email": email,
		"name":  name,
	}

	formErrors := make(map[string]string)

	if email == "" {
		formErrors["email"] = "Email is required"
	} else if _, err := mail.ParseAddress(email); err != nil {
		formErrors["email"] = "Invalid email address"
	}

	if name == "" {
		formErrors["name"] = "Name is required"
	} else if len(name) < 2 {
		formErrors["name"] = "Name must be at least 2 characters"
	}

	if password == "" {
		formErrors["password"] = "Password is required"
	} else if len(password) < MinPasswordLength {
		formErrors["password"] = fmt.Sprintf("Password must be at least %d characters", MinPasswordLength)
	}

	// Exact-match uniqueness check; the UNIQUE constraint backs this up.
	if formErrors["email"] == "" {
		if _, err := h.queries.GetUserByEmail(r.Context(), email); err == nil {
			formErrors["email"] = "Email already registered"
		} else if !errors.Is(err, sql.ErrNoRows) {
			logAndInternalError(w, "database error checking email", "error", err)
			return
		}
	}

	if len(formErrors) > 0 {
		data := AuthFormData{
			Errors:     formErrors,
			FormValues: formValues,
		}
		renderOrInternalError(w, r, h.renderer, "register", render.TemplateData{
			Title: "Register",
			Data:  data,
		})
		return
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		logAndInternalError(w, "password hash error", "error", err)
		return
	}

	// The very first account gets the administrator role.
	role := store.RoleUser
	count, err := h.queries.CountUsers(r.Context())
	if err != nil {
		logAndInternalError(w, "database error counting users", "error", err)
		return
	}
	if count == 0 {
		role = store.RoleAdmin
	}

	now := time.Now()
	user, err := h.queries.CreateUser(r.Context(), store.CreateUserParams{
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		Name:         name,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		// Lost a race with a concurrent registration for the same email
		if store.IsUniqueViolation(err) {
			formErrors["email"] = "Email already registered"
			renderOrInternalError(w, r, h.renderer, "register", render.TemplateData{
				Title: "Register",
				Data:  AuthFormData{Errors: formErrors, FormValues: formValues},
			})
			return
		}
		logAndInternalError(w, "failed to create user", "error", err, "email", email)
		return
	}

	// Regenerate session ID to prevent session fixation, then auto-login
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		logAndInternalError(w, "session renewal error", "error", err)
		return
	}
	h.sessionManager.Put(r.Context(), SessionKeyUserID, user.ID)

	slog.Info("user registered", "user_id", user.ID, "email", user.Email, "role", user.Role)

	flashSuccess(w, r, h.renderer, RouteRoot, "Welcome, "+user.Name+"!")
}

// LoginForm handles GET /login - displays the login form.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	// Redirect already-authenticated users
	if userID := h.sessionManager.GetInt64(r.Context(), SessionKeyUserID); userID > 0 {
		http.Redirect(w, r, RouteRoot, http.StatusSeeOther)
		return
	}

	data := AuthFormData{
		Errors:     make(map[string]string),
		FormValues: make(map[string]string),
	}

	renderOrInternalError(w, r, h.renderer, "login", render.TemplateData{
		Title: "Log In",
		Data:  data,
	})
}

// Login handles POST /login - the login form submission.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		flashError(w, r, h.renderer, RouteLogin, "Invalid form data")
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	if email == "" || password == "" {
		flashError(w, r, h.renderer, RouteLogin, "Email and password are required")
		return
	}

	// Check if account is locked
	if h.loginProtection != nil {
		if locked, remaining := h.loginProtection.IsAccountLocked(email); locked {
			flashError(w, r, h.renderer, RouteLogin,
				"Account temporarily locked. Try again in "+formatDuration(remaining)+".")
			return
		}
	}

	user, err := h.queries.GetUserByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			slog.Debug("login attempt for non-existent user", "email", email)
		} else {
			slog.Error("database error during login", "error", err)
		}
		// Record failed attempt even for non-existent users to prevent enumeration
		h.failLogin(w, r, email)
		return
	}

	valid, err := auth.CheckPassword(password, user.PasswordHash)
	if err != nil {
		slog.Error("password check error", "error", err)
		flashError(w, r, h.renderer, RouteLogin, "Invalid email or password")
		return
	}

	if !valid {
		slog.Debug("invalid password attempt", "email", email)
		h.failLogin(w, r, email)
		return
	}

	// Clear failed attempts on successful login
	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(email)
	}

	// Re-hash password if it uses stale parameters
	if auth.NeedsRehash(user.PasswordHash) {
		if newHash, err := auth.HashPassword(password); err == nil {
			if err := h.queries.UpdateUserPassword(r.Context(), store.UpdateUserPasswordParams{
				PasswordHash: newHash,
				UpdatedAt:    time.Now(),
				ID:           user.ID,
			}); err != nil {
				slog.Error("failed to re-hash password", "error", err, "user_id", user.ID)
			} else {
				slog.Info("password re-hashed with updated parameters", "user_id", user.ID)
			}
		}
	}

	// Update last login timestamp
	if err := h.queries.UpdateUserLastLogin(r.Context(), store.UpdateUserLastLoginParams{
		LastLoginAt: sql.NullTime{Time: time.Now(), Valid: true},
		ID:          user.ID,
	}); err != nil {
		slog.Error("failed to update last login time", "error", err, "user_id", user.ID)
		// Don't block login on this error
	}

	// Regenerate session ID to prevent session fixation
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		logAndInternalError(w, "session renewal error", "error", err)
		return
	}

	h.sessionManager.Put(r.Context(), SessionKeyUserID, user.ID)

	slog.Info("user logged in", "user_id", user.ID, "email", user.Email)

	flashSuccess(w, r, h.renderer, RouteRoot, "Welcome back, "+user.Name+"!")
}

// failLogin records a failed attempt and redirects with the right message.
// Unknown accounts and wrong passwords produce the same response.
func (h *AuthHandler) failLogin(w http.ResponseWriter, r *http.Request, email string) {
	if h.loginProtection != nil {
		if locked, lockDuration := h.loginProtection.RecordFailedAttempt(email); locked {
			flashError(w, r, h.renderer, RouteLogin,
				"Too many failed attempts. Account locked for "+formatDuration(lockDuration)+".")
			return
		}
		remaining := h.loginProtection.GetRemainingAttempts(email)
		if remaining <= 3 && remaining > 0 {
			flashError(w, r, h.renderer, RouteLogin,
				fmt.Sprintf("Invalid email or password. %d attempts remaining.", remaining))
			return
		}
	}
	flashError(w, r, h.renderer, RouteLogin, "Invalid email or password")
}

// Logout handles GET and POST /logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := h.sessionManager.GetInt64(r.Context(), SessionKeyUserID)

	// Destroying an absent session is a no-op
	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		slog.Error("session destroy error", "error", err)
	}

	if userID > 0 {
		slog.Info("user logged out", "user_id", userID)
	}

	flashAndRedirect(w, r, h.renderer, RouteRoot, "You have been logged out.", "info")
}

// formatDuration formats a duration into a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", mins)
	}
	hours := int(d.Hours())
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}
