package records

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/iankuys/c2c-survey-app/pkg/redcap"
)

const operationParse = "parse_records"

type Client interface {
	ExportRecords(ctx context.Context, req redcap.ExportRequest) ([]redcap.Record, error)
	ImportRecords(ctx context.Context, records []redcap.Record) (int, error)
}

// Gateway is the only component talking to the survey project of the records service.
type Gateway struct {
	client     Client
	maxScreens int
}

func NewGateway(client Client, maxScreens int) *Gateway {
	return &Gateway{
		client:     client,
		maxScreens: maxScreens,
	}
}

func (g *Gateway) MaxScreens() int {
	return g.maxScreens
}

// FetchScreenAssignments returns the persisted screens 1..N of a participant ordered by
// screen number. Screens without a record are absent.
func (g *Gateway) FetchScreenAssignments(ctx context.Context, accessKey string) ([]ScreenAssignment, error) {
	events := make([]string, 0, g.maxScreens)
	for s := 1; s <= g.maxScreens; s++ {
		events = append(events, ScreenEvent(s))
	}

	rows, err := g.client.ExportRecords(ctx, redcap.ExportRequest{
		Records: []string{accessKey},
		Fields:  []string{FieldAccessKey, FieldVideoA, FieldVideoB, FieldVideoComplete},
		Events:  events,
	})
	if err != nil {
		return nil, err
	}
	return parseScreenAssignments(rows, g.maxScreens)
}

func (g *Gateway) FetchCompletionStatus(ctx context.Context, accessKey string) (CompletionStatus, error) {
	rows, err := g.client.ExportRecords(ctx, redcap.ExportRequest{
		Records: []string{accessKey},
		Fields:  []string{FieldAccessKey, FieldSkipped, FieldOutroComplete},
		Events:  []string{EventStart, EventOutro},
	})
	if err != nil {
		return CompletionStatus{}, err
	}
	return parseCompletionStatus(rows)
}

// ComputeResumePoint finds the most recently completed screen. With includeNext the
// following screen's pair is attached when it exists and is allocated.
func (g *Gateway) ComputeResumePoint(ctx context.Context, accessKey string, includeNext bool) (ResumePoint, error) {
	assignments, err := g.FetchScreenAssignments(ctx, accessKey)
	if err != nil {
		return ResumePoint{}, err
	}

	rp := ResumePoint{MostRecentCompleted: MostRecentCompletedScreen(assignments)}
	if includeNext && rp.MostRecentCompleted < g.maxScreens {
		if next, ok := FindScreen(assignments, rp.MostRecentCompleted+1); ok && next.IsAllocated() {
			rp.Next = &next
		}
	}
	return rp, nil
}

// WriteEvent upserts the patches and returns the number of records written.
func (g *Gateway) WriteEvent(ctx context.Context, patches []RecordPatch) (int, error) {
	if len(patches) == 0 {
		return 0, nil
	}

	rows := make([]redcap.Record, 0, len(patches))
	for _, p := range patches {
		if p.AccessKey == "" || p.Event == "" {
			return 0, errors.New("record patch needs an access key and an event")
		}
		row := redcap.Record{
			FieldAccessKey: p.AccessKey,
			FieldEventName: p.Event,
		}
		for k, v := range p.Fields {
			if k == FieldAccessKey || k == FieldEventName {
				continue
			}
			row[k] = v
		}
		rows = append(rows, row)
	}

	count, err := g.client.ImportRecords(ctx, rows)
	if err != nil {
		return 0, err
	}
	slog.Debug("records written", slog.Int("patches", len(patches)), slog.Int("count", count))
	return count, nil
}

func parseScreenAssignments(rows []redcap.Record, maxScreens int) ([]ScreenAssignment, error) {
	byScreen := map[int]ScreenAssignment{}
	for _, row := range rows {
		if err := requireFields(row, FieldEventName, FieldVideoA, FieldVideoB, FieldVideoComplete); err != nil {
			return nil, err
		}
		screen, ok := ParseScreenEvent(row[FieldEventName])
		if !ok || screen > maxScreens {
			slog.Warn("ignoring unexpected event in screen export", slog.String("event", row[FieldEventName]))
			continue
		}
		byScreen[screen] = ScreenAssignment{
			Screen:    screen,
			VideoA:    row[FieldVideoA],
			VideoB:    row[FieldVideoB],
			Completed: row[FieldVideoComplete] == StatusComplete,
		}
	}

	assignments := make([]ScreenAssignment, 0, len(byScreen))
	for _, a := range byScreen {
		assignments = append(assignments, a)
	}
	sort.Slice(assignments, func(i, j int) bool {
		return assignments[i].Screen < assignments[j].Screen
	})
	return assignments, nil
}

func parseCompletionStatus(rows []redcap.Record) (CompletionStatus, error) {
	status := CompletionStatus{}
	for _, row := range rows {
		if err := requireFields(row, FieldEventName); err != nil {
			return CompletionStatus{}, err
		}
		if row[FieldSkipped] == SkippedYes {
			status.Skipped = true
		}
		if row[FieldOutroComplete] == StatusComplete {
			status.OutroComplete = true
		}
	}
	return status, nil
}

func requireFields(row redcap.Record, fields ...string) error {
	for _, f := range fields {
		if _, ok := row[f]; !ok {
			return &redcap.ServiceError{Operation: operationParse, Message: "record is missing field '" + f + "'"}
		}
	}
	return nil
}
