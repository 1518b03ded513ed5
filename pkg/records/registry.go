package records

import (
	"context"

	"github.com/iankuys/c2c-survey-app/pkg/redcap"
)

// Enrollment data in the registry project.
const (
	FieldRegistryParticipantID = FieldRegistryRecordID
	EventRegistryEnrollment    = "enroll_arm_1"
)

type ExportClient interface {
	ExportRecords(ctx context.Context, req redcap.ExportRequest) ([]redcap.Record, error)
}

// RegistryParticipantIDs lists the distinct participant IDs enrolled in the registry, in
// export order.
func RegistryParticipantIDs(ctx context.Context, client ExportClient, idField string, event string) ([]string, error) {
	rows, err := client.ExportRecords(ctx, redcap.ExportRequest{
		Fields: []string{idField},
		Events: []string{event},
	})
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	ids := []string{}
	for _, r := range rows {
		id := r[idField]
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

// StartRecordColumns is the header of a start record import for the survey project.
func StartRecordColumns(completionField string) []string {
	return []string{FieldAccessKey, FieldEventName, FieldParticipantID, completionField}
}

// StartRecord is the row that registers a participant's key in the survey project. The
// access key is the record ID there.
func StartRecord(accessKey string, participantID string, completionField string, completion string) redcap.Record {
	return redcap.Record{
		FieldAccessKey:     accessKey,
		FieldEventName:     EventStart,
		FieldParticipantID: participantID,
		completionField:    completion,
	}
}
