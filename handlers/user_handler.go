package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"wya-server/middleware"
	"wya-server/models"
	"wya-server/services"
	"wya-server/utils/errors"
)

type UserHandler struct {
	userService     *services.UserService
	locationService *services.LocationService
}

func NewUserHandler(userService *services.UserService, locationService *services.LocationService) *UserHandler {
	return &UserHandler{
		userService:     userService,
		locationService: locationService,
	}
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.ListUsers(r.Context())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, users)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetUser(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	var input struct {
		UserID string   `json:"userID"`
		Lat    *float64 `json:"lat"`
		Lon    *float64 `json:"lon"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.UserID == "" || input.Lat == nil || input.Lon == nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	if err := h.locationService.UpdateLocation(r.Context(), input.UserID, *input.Lat, *input.Lon); err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeSuccess(w)
}

func (h *UserHandler) SetShowLocation(w http.ResponseWriter, r *http.Request) {
	var input struct {
		ShowLocation *bool `json:"showLocation"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.ShowLocation == nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}
	if err := h.userService.SetShowLocation(r.Context(), mux.Vars(r)["id"], *input.ShowLocation); err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeSuccess(w)
}

func (h *UserHandler) SetShowCity(w http.ResponseWriter, r *http.Request) {
	var input struct {
		ShowCity *bool `json:"showCity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.ShowCity == nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}
	if err := h.userService.SetShowCity(r.Context(), mux.Vars(r)["id"], *input.ShowCity); err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeSuccess(w)
}

func (h *UserHandler) SetAvatar(w http.ResponseWriter, r *http.Request) {
	var input struct {
		AvatarName string `json:"avatarName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}
	if err := h.userService.SetAvatar(r.Context(), mux.Vars(r)["id"], models.Avatar(input.AvatarName)); err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeSuccess(w)
}

func (h *UserHandler) SetPushToken(w http.ResponseWriter, r *http.Request) {
	var input struct {
		ExpoPushToken string `json:"expoPushToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}
	if input.ExpoPushToken != "" && !services.ValidPushToken(input.ExpoPushToken) {
		middleware.WriteError(w, errors.Validationf("malformed expo push token"))
		return
	}
	if err := h.userService.SetPushToken(r.Context(), mux.Vars(r)["id"], input.ExpoPushToken); err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeSuccess(w)
}

func (h *UserHandler) Block(w http.ResponseWriter, r *http.Request) {
	var input struct {
		BlockedUserID string `json:"blockedUserId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}
	if err := h.userService.Block(r.Context(), mux.Vars(r)["id"], input.BlockedUserID); err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeSuccess(w)
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.userService.DeleteUser(r.Context(), mux.Vars(r)["id"]); err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeSuccess(w)
}

func writeSuccess(w http.ResponseWriter) {
	middleware.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
