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

// AuthHandler serves the login-or-signup flow that runs after the auth
// provider has verified the phone number.
type AuthHandler struct {
	userService *services.UserService
}

type PhoneLookupResponse struct {
	Exists bool         `json:"exists"`
	Data   *models.User `json:"data,omitempty"`
	ID     string       `json:"id,omitempty"`
}

func NewAuthHandler(userService *services.UserService) *AuthHandler {
	return &AuthHandler{userService: userService}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var input services.SignupInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	id, err := h.userService.Signup(r.Context(), input)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (h *AuthHandler) LookupPhone(w http.ResponseWriter, r *http.Request) {
	user, exists, err := h.userService.GetByPhone(r.Context(), mux.Vars(r)["phoneNumber"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	if !exists {
		middleware.WriteJSON(w, http.StatusOK, PhoneLookupResponse{Exists: false})
		return
	}
	middleware.WriteJSON(w, http.StatusOK, PhoneLookupResponse{Exists: true, Data: &user, ID: user.ID})
}
