package services

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"wya-server/models"
	"wya-server/utils/errors"
)

func TestFileReport(t *testing.T) {
	store := NewMemoryStore()
	svc := NewReportService(store, nil)
	filedAt := time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return filedAt }

	// the reported user does not need to exist
	report, err := svc.FileReport(context.Background(), "a", "b", "spam")
	if err != nil {
		t.Fatalf("file report: %v", err)
	}
	if report.ID == "" || report.Status != models.ReportStatusPending || !report.Timestamp.Equal(filedAt) {
		t.Fatalf("unexpected report %+v", report)
	}
	if stored := store.Reports(); len(stored) != 1 || stored[0].Explanation != "spam" {
		t.Fatalf("unexpected stored reports %+v", stored)
	}
}

func TestFileReportRequiresParties(t *testing.T) {
	svc := NewReportService(NewMemoryStore(), nil)
	for _, ids := range [][2]string{{"", "b"}, {"a", ""}, {" ", " "}} {
		_, err := svc.FileReport(context.Background(), ids[0], ids[1], "x")
		if !stderrors.Is(err, errors.ErrValidation) {
			t.Fatalf("expected validation error for %v, got %v", ids, err)
		}
	}
}
