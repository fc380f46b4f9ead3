package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"wya-server/models"
	"wya-server/utils/errors"
)

type ReportService struct {
	store  ReportStore
	logger *zap.Logger
	now    func() time.Time
}

func NewReportService(store ReportStore, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{store: store, logger: logger, now: time.Now}
}

// FileReport records a pending report. Reported users are not required to still exist.
func (s *ReportService) FileReport(ctx context.Context, reporterID, reportedID, explanation string) (models.Report, error) {
	reporterID, reportedID = strings.TrimSpace(reporterID), strings.TrimSpace(reportedID)
	if reporterID == "" || reportedID == "" {
		return models.Report{}, errors.Validationf("reporterId and reportedId are required")
	}

	report := models.Report{
		ReporterID:  reporterID,
		ReportedID:  reportedID,
		Explanation: explanation,
		Timestamp:   s.now().UTC(),
		Status:      models.ReportStatusPending,
	}
	id, err := s.store.CreateReport(ctx, report)
	if err != nil {
		s.logger.Error("failed to file report", zap.String("reporter", reporterID), zap.String("reported", reportedID), zap.Error(err))
		return models.Report{}, err
	}
	report.ID = id
	s.logger.Info("report filed", zap.String("id", id), zap.String("reporter", reporterID), zap.String("reported", reportedID))
	return report, nil
}
