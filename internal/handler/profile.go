package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/scoreboard/internal/apperror"
	"github.com/sakif/scoreboard/internal/auth"
	"github.com/sakif/scoreboard/internal/model"
	"github.com/sakif/scoreboard/internal/service"
)

// ProfileHandler serves PUT /update/profile.
type ProfileHandler struct {
	profiles *service.ProfileService
	logger   *slog.Logger
}

func NewProfileHandler(profiles *service.ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, logger: logger}
}

// Pointers distinguish "absent" from "empty".
type updateProfileRequest struct {
	Name   *string `json:"name"`
	Family *string `json:"family"`
	Phone  *string `json:"phone"`
	Email  *string `json:"email"`
}

type updateProfileResponse struct {
	Message string         `json:"message"`
	User    *model.Account `json:"user"`
}

// HandleUpdate edits the caller's own profile.
//
// HTTP: PUT /update/profile
// REQUEST BODY: any of {"name","family","phone","email"}
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthenticated("Authentication required"))
		return
	}

	var req updateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	account, err := h.profiles.Update(r.Context(), accountID, model.ProfileUpdate{
		Name:   req.Name,
		Family: req.Family,
		Phone:  req.Phone,
		Email:  req.Email,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, updateProfileResponse{
		Message: "Profile updated",
		User:    account,
	})
}
