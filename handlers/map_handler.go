package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"wya-server/middleware"
	"wya-server/services"
	"wya-server/utils/errors"
)

const defaultRadiusKm = 50

// MapHandler serves the visibility-filtered views used by the map and contact list.
type MapHandler struct {
	visibilityService *services.VisibilityService
	locationService   *services.LocationService
}

type VisibleUsersResponse struct {
	Users []services.VisibleUser `json:"users"`
	Count int                    `json:"count"`
}

type NearbyUsersResponse struct {
	NearbyUsers []services.VisibleUser `json:"nearby_users"`
	Count       int                    `json:"count"`
	Lat         float64                `json:"lat"`
	Lon         float64                `json:"lon"`
	Radius      float64                `json:"radius"`
}

func NewMapHandler(visibilityService *services.VisibilityService, locationService *services.LocationService) *MapHandler {
	return &MapHandler{visibilityService: visibilityService, locationService: locationService}
}

// VisibleUsers lists what the viewer may see. Optional lat/lon replace the
// viewer's stored position with their live one.
func (h *MapHandler) VisibleUsers(w http.ResponseWriter, r *http.Request) {
	var live *services.LiveLocation
	q := r.URL.Query()
	if q.Get("lat") != "" || q.Get("lon") != "" {
		lat, err := strconv.ParseFloat(q.Get("lat"), 64)
		if err != nil {
			middleware.WriteError(w, errors.ErrInvalidInput)
			return
		}
		lon, err := strconv.ParseFloat(q.Get("lon"), 64)
		if err != nil {
			middleware.WriteError(w, errors.ErrInvalidInput)
			return
		}
		if err := services.ValidateCoordinates(lat, lon); err != nil {
			middleware.WriteError(w, err)
			return
		}
		live = &services.LiveLocation{Latitude: lat, Longitude: lon}
	}

	users, err := h.visibilityService.VisibleUsers(r.Context(), mux.Vars(r)["id"], live)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, VisibleUsersResponse{Users: users, Count: len(users)})
}

func (h *MapHandler) NearbyUsers(w http.ResponseWriter, r *http.Request) {
	// Parse GPS coordinates
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}
	lon, err := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}
	radius := float64(defaultRadiusKm)
	if raw := r.URL.Query().Get("radius"); raw != "" {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			middleware.WriteError(w, errors.ErrInvalidInput)
			return
		}
	}

	users, err := h.locationService.Nearby(r.Context(), mux.Vars(r)["id"], lat, lon, radius)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, NearbyUsersResponse{
		NearbyUsers: users,
		Count:       len(users),
		Lat:         lat,
		Lon:         lon,
		Radius:      radius,
	})
}
