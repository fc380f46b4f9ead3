package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"wya-server/middleware"
	"wya-server/services"
	"wya-server/utils/errors"
)

type RouterConfig struct {
	Users          *UserHandler
	Auth           *AuthHandler
	Map            *MapHandler
	Reports        *ReportHandler
	Cron           *CronHandler
	Policy         *PolicyHandler
	CronAuth       *services.CronAuth
	AllowedOrigins []string
	Logger         *zap.Logger
}

func NewRouter(cfg RouterConfig) *mux.Router {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := mux.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.ErrorMiddleware(logger))
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, errors.NotFoundf("Route not found"))
	})

	// User routes
	users := r.PathPrefix("/users").Subrouter()
	users.HandleFunc("", cfg.Users.ListUsers).Methods("GET", "OPTIONS")
	users.HandleFunc("/signup", cfg.Auth.Signup).Methods("POST", "OPTIONS")
	users.HandleFunc("/location", cfg.Users.UpdateLocation).Methods("POST", "OPTIONS")
	users.HandleFunc("/phone/{phoneNumber}", cfg.Auth.LookupPhone).Methods("GET", "OPTIONS")
	users.HandleFunc("/{id}", cfg.Users.GetUser).Methods("GET", "OPTIONS")
	users.HandleFunc("/{id}", cfg.Users.DeleteUser).Methods("DELETE", "OPTIONS")
	users.HandleFunc("/{id}/visible", cfg.Map.VisibleUsers).Methods("GET", "OPTIONS")
	users.HandleFunc("/{id}/nearby", cfg.Map.NearbyUsers).Methods("GET", "OPTIONS")
	users.HandleFunc("/{id}/show-location", cfg.Users.SetShowLocation).Methods("PATCH", "OPTIONS")
	users.HandleFunc("/{id}/show-city", cfg.Users.SetShowCity).Methods("PATCH", "OPTIONS")
	users.HandleFunc("/{id}/avatar", cfg.Users.SetAvatar).Methods("PATCH", "OPTIONS")
	users.HandleFunc("/{id}/push-token", cfg.Users.SetPushToken).Methods("PATCH", "OPTIONS")
	users.HandleFunc("/{id}/block", cfg.Users.Block).Methods("PATCH", "OPTIONS")

	r.HandleFunc("/reports", cfg.Reports.FileReport).Methods("POST", "OPTIONS")

	// Cron routes
	cron := r.PathPrefix("/cron").Subrouter()
	cron.Use(middleware.CronAuthMiddleware(cfg.CronAuth))
	cron.HandleFunc("/check-inactive-users", cfg.Cron.CheckInactiveUsers).Methods("POST", "OPTIONS")

	r.HandleFunc("/privacy-policy", cfg.Policy.PrivacyPolicy).Methods("GET", "OPTIONS")
	r.HandleFunc("/healthz", cfg.Policy.Health).Methods("GET")

	return r
}
