package records

import (
	"context"
	"strings"

	"github.com/iankuys/c2c-survey-app/pkg/redcap"
)

// Field names of the registry's email report.
const (
	FieldRegistryRecordID = "record_id"
	FieldRegistryEmail    = "start_email"
)

type ReportClient interface {
	ExportReport(ctx context.Context, reportID string) ([]redcap.Record, error)
}

// EmailDirectory looks participants up by email in a report of the registry project.
type EmailDirectory struct {
	client   ReportClient
	reportID string
}

func NewEmailDirectory(client ReportClient, reportID string) *EmailDirectory {
	return &EmailDirectory{client: client, reportID: reportID}
}

func (d *EmailDirectory) ParticipantIDByEmail(ctx context.Context, email string) (string, bool, error) {
	rows, err := d.client.ExportReport(ctx, d.reportID)
	if err != nil {
		return "", false, err
	}

	email = strings.TrimSpace(email)
	for _, row := range rows {
		id, hasID := row[FieldRegistryRecordID]
		candidate, hasEmail := row[FieldRegistryEmail]
		if !hasID || !hasEmail || id == "" {
			continue
		}
		if strings.EqualFold(email, strings.TrimSpace(candidate)) {
			return id, true, nil
		}
	}
	return "", false, nil
}
