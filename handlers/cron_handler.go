package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"wya-server/middleware"
	"wya-server/services"
)

type CronHandler struct {
	notificationService *services.NotificationService
	logger              *zap.Logger
}

func NewCronHandler(notificationService *services.NotificationService, logger *zap.Logger) *CronHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CronHandler{notificationService: notificationService, logger: logger}
}

func (h *CronHandler) CheckInactiveUsers(w http.ResponseWriter, r *http.Request) {
	scheduler := middleware.Scheduler(r.Context())
	if scheduler == "" {
		scheduler = "anonymous"
	}
	h.logger.Info("inactive user scan triggered", zap.String("scheduler", scheduler))

	result, err := h.notificationService.CheckInactiveUsers(r.Context())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "result": result})
}
