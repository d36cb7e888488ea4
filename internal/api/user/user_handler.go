package user

import (
	"log/slog"
	"net/http"

	"github.com/FACorreiaa/harunekki-api/internal/api"
	"github.com/FACorreiaa/harunekki-api/internal/api/auth"
	"github.com/FACorreiaa/harunekki-api/internal/types"
)

type HandlerImpl struct {
	userService UserService
	logger      *slog.Logger
}

// NewHandlerImpl creates a new user HandlerImpl instance.
func NewHandlerImpl(userService UserService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		userService: userService,
		logger:      logger,
	}
}

// GetUserProfile godoc
// @Summary      Get User Profile
// @Description  Retrieves the authenticated user's profile, creating it on first use.
// @Tags         User
// @Produce      json
// @Success      200 {object} types.Profile "User Profile"
// @Failure      401 {object} api.Response "Unauthorized"
// @Failure      500 {object} api.Response "Internal Server Error"
// @Security     BearerAuth
// @Router       /me [get]
func (h *HandlerImpl) GetUserProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}

	profile, err := h.userService.GetUserProfile(r.Context(), userID)
	if err != nil {
		api.HandleServiceError(w, r, err, "Failed to retrieve user profile")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, profile)
}

// UpdateUserProfile godoc
// @Summary      Update User Profile
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        profile body types.UpdateProfileRequest true "Profile"
// @Success      200 {object} types.Profile "Updated profile"
// @Failure      400 {object} api.Response "Invalid Input"
// @Failure      401 {object} api.Response "Unauthorized"
// @Security     BearerAuth
// @Router       /me [put]
func (h *HandlerImpl) UpdateUserProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}

	var params types.UpdateProfileRequest
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	profile, err := h.userService.UpdateUserProfile(r.Context(), userID, params)
	if err != nil {
		api.HandleServiceError(w, r, err, "Failed to update user profile")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, profile)
}

// DeleteAccount godoc
// @Summary      Delete account
// @Description  Removes the user together with diaries, stamps and likes.
// @Tags         User
// @Success      204
// @Failure      401 {object} api.Response "Unauthorized"
// @Security     BearerAuth
// @Router       /me [delete]
func (h *HandlerImpl) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUser(w, r)
	if !ok {
		return
	}
	if err := h.userService.DeleteAccount(r.Context(), userID); err != nil {
		api.HandleServiceError(w, r, err, "Failed to delete account")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
