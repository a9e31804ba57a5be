package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/scoreboard/internal/apperror"
	"github.com/sakif/scoreboard/internal/auth"
	"github.com/sakif/scoreboard/internal/model"
	"github.com/sakif/scoreboard/internal/service"
)

// AuthHandler serves registration, login and the caller's own profile.
//
//   - HandleRegister → POST /auth/register
//   - HandleLogin    → POST /auth/login
//   - HandleMe       → GET  /auth/me        (auth required)
type AuthHandler struct {
	auth     *service.AuthService
	profiles *service.ProfileService
	logger   *slog.Logger
}

// NewAuthHandler creates an AuthHandler. All dependencies are injected here;
// the handler has no knowledge of how they're constructed.
func NewAuthHandler(authSvc *service.AuthService, profiles *service.ProfileService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:     authSvc,
		profiles: profiles,
		logger:   logger,
	}
}

type registerRequest struct {
	Name            string `json:"name"`
	Family          string `json:"family"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
}

type loginRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail"`
	Password        string `json:"password"`
}

// sessionResponse is returned by both register and login.
type sessionResponse struct {
	User  *model.Account `json:"user"`
	Games []model.Game   `json:"games"`
	Token string         `json:"token"`
}

type profileResponse struct {
	User *model.Account `json:"user"`
}

// HandleRegister creates an account and its first game.
//
// HTTP: POST /auth/register
// REQUEST BODY: {"name","family","username","password","confirmPassword","email","phone"?}
// RESPONSE: 200 {"user": {...}, "games": [{...}], "token": "..."}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	res, err := h.auth.Register(r.Context(), service.RegisterInput{
		Name:            req.Name,
		Family:          req.Family,
		Username:        req.Username,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Email:           req.Email,
		Phone:           req.Phone,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		User:  res.Account,
		Games: res.Games,
		Token: res.Token,
	})
}

// HandleLogin exchanges a username-or-email and password for a token.
//
// HTTP: POST /auth/login
// REQUEST BODY: {"usernameOrEmail": "...", "password": "..."}
//
// A malformed body gets the same 401 as a wrong password.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, apperror.InvalidCredentials())
		return
	}

	res, err := h.auth.Login(r.Context(), req.UsernameOrEmail, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		User:  res.Account,
		Games: res.Games,
		Token: res.Token,
	})
}

// HandleMe returns the authenticated account's profile.
//
// HTTP: GET /auth/me
// Auth: Required (RequireAuth middleware sets the account ID in context)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthenticated("Authentication required"))
		return
	}

	account, err := h.profiles.Get(r.Context(), accountID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{User: account})
}
