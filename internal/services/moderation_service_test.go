package services

import (
	"errors"
	"testing"

	"github.com/devarena/backend/internal/dto"
	"github.com/google/uuid"
)

func TestCreateReport(t *testing.T) {
	db := newTestDB(t)
	svc := NewModerationService(db)
	reporter := createUser(t, db, "reporter")

	tests := []struct {
		name    string
		req     dto.CreateReportRequest
		wantErr bool
	}{
		{"valid post report", dto.CreateReportRequest{ContentType: "post", ContentID: "abc", Reason: "spam"}, false},
		{"valid battle report", dto.CreateReportRequest{ContentType: "battle", ContentID: "abc", Reason: "cheating"}, false},
		{"bad content type", dto.CreateReportRequest{ContentType: "emoji", ContentID: "abc", Reason: "spam"}, true},
		{"blank reason", dto.CreateReportRequest{ContentType: "post", ContentID: "abc", Reason: "   "}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := svc.CreateReport(reporter.ID, &tt.req)
			if tt.wantErr {
				if err == nil {
					t.Error("CreateReport() accepted an invalid request")
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateReport() error = %v", err)
			}
			if report.Status != "pending" {
				t.Errorf("new report status = %q, want pending", report.Status)
			}
		})
	}
}

func TestActionReport(t *testing.T) {
	db := newTestDB(t)
	svc := NewModerationService(db)
	reporter := createUser(t, db, "reporter")

	report, err := svc.CreateReport(reporter.ID, &dto.CreateReportRequest{
		ContentType: "post", ContentID: "abc", Reason: "spam",
	})
	if err != nil {
		t.Fatalf("CreateReport() error = %v", err)
	}

	if err := svc.ActionReport(report.ID, &dto.ActionReportRequest{Status: "escalated"}); err == nil {
		t.Error("ActionReport() accepted an unknown status")
	}
	if err := svc.ActionReport(uuid.New(), &dto.ActionReportRequest{Status: "dismissed"}); !errors.Is(err, ErrReportNotFound) {
		t.Errorf("unknown report error = %v, want ErrReportNotFound", err)
	}

	if err := svc.ActionReport(report.ID, &dto.ActionReportRequest{Status: "actioned", AdminNote: "removed"}); err != nil {
		t.Fatalf("ActionReport() error = %v", err)
	}

	pending, _, err := svc.ListReports("pending", 10, 0)
	if err != nil {
		t.Fatalf("ListReports() error = %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending reports = %d, want 0 after action", len(pending))
	}
	actioned, total, err := svc.ListReports("actioned", 10, 0)
	if err != nil {
		t.Fatalf("ListReports() error = %v", err)
	}
	if total != 1 || len(actioned) != 1 || actioned[0].AdminNote != "removed" {
		t.Errorf("actioned reports = %v (total %d)", actioned, total)
	}
}
