package records

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iankuys/c2c-survey-app/pkg/redcap"
	"github.com/iankuys/c2c-survey-app/pkg/redcap/emulator"
)

const testToken = "TESTTOKEN"

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestGateway(t *testing.T, maxScreens int) (*Gateway, *emulator.Store) {
	t.Helper()
	store := emulator.NewStore(testToken, FieldAccessKey)
	srv := httptest.NewServer(store.Handler())
	t.Cleanup(srv.Close)

	client := redcap.ClientConfig{
		URL:     srv.URL + "/",
		Token:   testToken,
		Timeout: 5 * time.Second,
	}
	return NewGateway(client, maxScreens), store
}

func putRows(t *testing.T, store *emulator.Store, rows ...redcap.Record) {
	t.Helper()
	for _, r := range rows {
		if err := store.Put(r); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}

func TestScreenEventNames(t *testing.T) {
	if ScreenEvent(3) != "screen3_arm_1" {
		t.Errorf("unexpected event name: %s", ScreenEvent(3))
	}

	testCases := []struct {
		event  string
		screen int
		ok     bool
	}{
		{event: "screen1_arm_1", screen: 1, ok: true},
		{event: "screen12_arm_1", screen: 12, ok: true},
		{event: "screen0_arm_1", ok: false},
		{event: "screenx_arm_1", ok: false},
		{event: "start_arm_1", ok: false},
		{event: "outroscreen_arm_1", ok: false},
		{event: "screen1_arm_2", ok: false},
	}
	for _, tc := range testCases {
		t.Run(tc.event, func(t *testing.T) {
			screen, ok := ParseScreenEvent(tc.event)
			if ok != tc.ok || screen != tc.screen {
				t.Errorf("got (%d, %v), want (%d, %v)", screen, ok, tc.screen, tc.ok)
			}
		})
	}
}

func TestFetchScreenAssignments(t *testing.T) {
	gw, store := newTestGateway(t, 3)
	ctx := context.Background()

	putRows(t, store,
		redcap.Record{FieldAccessKey: "key1", FieldEventName: ScreenEvent(2), FieldVideoA: "v3", FieldVideoB: "v4"},
		redcap.Record{FieldAccessKey: "key1", FieldEventName: ScreenEvent(1), FieldVideoA: "v1", FieldVideoB: "v2", FieldVideoComplete: StatusComplete},
		redcap.Record{FieldAccessKey: "key1", FieldEventName: EventStart, FieldSurveyStart: "2024-01-01 10:00:00"},
		redcap.Record{FieldAccessKey: "key1", FieldEventName: ScreenEvent(4), FieldVideoA: "v7", FieldVideoB: "v8"},
		redcap.Record{FieldAccessKey: "key2", FieldEventName: ScreenEvent(1), FieldVideoA: "v9", FieldVideoB: "v10"},
	)

	t.Run("participant with screens", func(t *testing.T) {
		assignments, err := gw.FetchScreenAssignments(ctx, "key1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []ScreenAssignment{
			{Screen: 1, VideoA: "v1", VideoB: "v2", Completed: true},
			{Screen: 2, VideoA: "v3", VideoB: "v4"},
		}
		if len(assignments) != len(want) {
			t.Fatalf("expected %d assignments, got %v", len(want), assignments)
		}
		for i := range want {
			if assignments[i] != want[i] {
				t.Errorf("assignment %d: got %+v, want %+v", i, assignments[i], want[i])
			}
		}
	})

	t.Run("unknown participant", func(t *testing.T) {
		assignments, err := gw.FetchScreenAssignments(ctx, "nobody")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(assignments) != 0 {
			t.Errorf("expected no assignments, got %v", assignments)
		}
	})

	t.Run("service error", func(t *testing.T) {
		store.FailWith("The value you provided for token is not valid")
		defer store.FailWith("")

		_, err := gw.FetchScreenAssignments(ctx, "key1")
		var svcErr *redcap.ServiceError
		if !errors.As(err, &svcErr) {
			t.Fatalf("expected service error, got %v", err)
		}
	})
}

func TestParseScreenAssignmentsMissingField(t *testing.T) {
	_, err := parseScreenAssignments([]redcap.Record{
		{FieldEventName: ScreenEvent(1), FieldVideoA: "v1", FieldVideoComplete: ""},
	}, 5)
	if !redcap.IsServiceError(err) {
		t.Errorf("expected service error for missing field, got %v", err)
	}
}

func TestFetchCompletionStatus(t *testing.T) {
	gw, store := newTestGateway(t, 3)
	ctx := context.Background()

	putRows(t, store,
		redcap.Record{FieldAccessKey: "fresh", FieldEventName: EventStart, FieldSurveyStart: "2024-01-01 10:00:00"},
		redcap.Record{FieldAccessKey: "skipper", FieldEventName: EventStart, FieldSkipped: SkippedYes},
		redcap.Record{FieldAccessKey: "done", FieldEventName: EventStart, FieldSkipped: "0"},
		redcap.Record{FieldAccessKey: "done", FieldEventName: EventOutro, FieldOutroComplete: StatusComplete},
	)

	testCases := []struct {
		key  string
		want CompletionStatus
	}{
		{key: "fresh", want: CompletionStatus{}},
		{key: "skipper", want: CompletionStatus{Skipped: true}},
		{key: "done", want: CompletionStatus{OutroComplete: true}},
		{key: "unknown", want: CompletionStatus{}},
	}
	for _, tc := range testCases {
		t.Run(tc.key, func(t *testing.T) {
			status, err := gw.FetchCompletionStatus(ctx, tc.key)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if status != tc.want {
				t.Errorf("got %+v, want %+v", status, tc.want)
			}
			if status.Finished() != (tc.want.Skipped || tc.want.OutroComplete) {
				t.Error("unexpected Finished result")
			}
		})
	}
}

func TestComputeResumePoint(t *testing.T) {
	gw, store := newTestGateway(t, 3)
	ctx := context.Background()

	putRows(t, store,
		// screen 1 done, screen 2 allocated
		redcap.Record{FieldAccessKey: "a", FieldEventName: ScreenEvent(1), FieldVideoA: "v1", FieldVideoB: "v2", FieldVideoComplete: StatusComplete},
		redcap.Record{FieldAccessKey: "a", FieldEventName: ScreenEvent(2), FieldVideoA: "v3", FieldVideoB: "v4"},
		// screen 2 holds placeholders
		redcap.Record{FieldAccessKey: "b", FieldEventName: ScreenEvent(1), FieldVideoA: "v1", FieldVideoB: "v2", FieldVideoComplete: StatusComplete},
		redcap.Record{FieldAccessKey: "b", FieldEventName: ScreenEvent(2), FieldVideoA: UndefinedVideoID, FieldVideoB: UndefinedVideoID},
		// everything complete
		redcap.Record{FieldAccessKey: "c", FieldEventName: ScreenEvent(1), FieldVideoA: "v1", FieldVideoB: "v2", FieldVideoComplete: StatusComplete},
		redcap.Record{FieldAccessKey: "c", FieldEventName: ScreenEvent(2), FieldVideoA: "v3", FieldVideoB: "v4", FieldVideoComplete: StatusComplete},
		redcap.Record{FieldAccessKey: "c", FieldEventName: ScreenEvent(3), FieldVideoA: "v5", FieldVideoB: "v6", FieldVideoComplete: StatusComplete},
	)

	testCases := []struct {
		name     string
		key      string
		next     bool
		wantMost int
		wantNext *ScreenAssignment
	}{
		{name: "next allocated", key: "a", next: true, wantMost: 1, wantNext: &ScreenAssignment{Screen: 2, VideoA: "v3", VideoB: "v4"}},
		{name: "next not requested", key: "a", next: false, wantMost: 1},
		{name: "next is placeholder", key: "b", next: true, wantMost: 1},
		{name: "all complete", key: "c", next: true, wantMost: 3},
		{name: "no records", key: "z", next: true, wantMost: 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rp, err := gw.ComputeResumePoint(ctx, tc.key, tc.next)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rp.MostRecentCompleted != tc.wantMost {
				t.Errorf("most recent: got %d, want %d", rp.MostRecentCompleted, tc.wantMost)
			}
			if tc.wantNext == nil {
				if rp.Next != nil {
					t.Errorf("expected no next pair, got %+v", rp.Next)
				}
				return
			}
			if rp.Next == nil || *rp.Next != *tc.wantNext {
				t.Errorf("next: got %+v, want %+v", rp.Next, tc.wantNext)
			}
		})
	}
}

func TestWriteEvent(t *testing.T) {
	gw, store := newTestGateway(t, 3)
	ctx := context.Background()

	count, err := gw.WriteEvent(ctx, []RecordPatch{
		{AccessKey: "key1", Event: ScreenEvent(1), Fields: map[string]string{FieldVideoA: "v1", FieldVideoB: "v2"}},
		{AccessKey: "key1", Event: ScreenEvent(2), Fields: map[string]string{FieldVideoA: "v3", FieldVideoB: "v4"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 record written, got %d", count)
	}

	t.Run("merge keeps existing fields", func(t *testing.T) {
		_, err := gw.WriteEvent(ctx, []RecordPatch{
			{AccessKey: "key1", Event: ScreenEvent(1), Fields: map[string]string{FieldVideoComplete: StatusComplete, FieldVideoSelected: "v2"}},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		row, ok := store.Get("key1", ScreenEvent(1))
		if !ok {
			t.Fatal("row missing")
		}
		if row[FieldVideoA] != "v1" || row[FieldVideoSelected] != "v2" || row[FieldVideoComplete] != StatusComplete {
			t.Errorf("unexpected row: %v", row)
		}
	})

	t.Run("empty patch list", func(t *testing.T) {
		calls := store.ImportCalls()
		count, err := gw.WriteEvent(ctx, nil)
		if err != nil || count != 0 {
			t.Errorf("unexpected result: %d, %v", count, err)
		}
		if store.ImportCalls() != calls {
			t.Error("empty write should not call the service")
		}
	})

	t.Run("patch without event", func(t *testing.T) {
		if _, err := gw.WriteEvent(ctx, []RecordPatch{{AccessKey: "key1"}}); err == nil {
			t.Error("should produce error")
		}
	})

	t.Run("service error", func(t *testing.T) {
		store.FailWith("import failed")
		defer store.FailWith("")
		_, err := gw.WriteEvent(ctx, []RecordPatch{{AccessKey: "key1", Event: EventStart}})
		if !redcap.IsServiceError(err) {
			t.Errorf("expected service error, got %v", err)
		}
	})
}

func TestParticipantIDByEmail(t *testing.T) {
	store := emulator.NewStore(testToken, FieldRegistryRecordID)
	srv := httptest.NewServer(store.Handler())
	defer srv.Close()

	store.SetReport("42", []redcap.Record{
		{FieldRegistryRecordID: "1001", FieldRegistryEmail: "first@example.org"},
		{FieldRegistryRecordID: "1002", FieldRegistryEmail: " Second@Example.org "},
		{FieldRegistryRecordID: "", FieldRegistryEmail: "nobody@example.org"},
	})

	client := redcap.ClientConfig{URL: srv.URL + "/", Token: testToken, Timeout: 5 * time.Second}
	dir := NewEmailDirectory(client, "42")
	ctx := context.Background()

	testCases := []struct {
		email string
		id    string
		found bool
	}{
		{email: "first@example.org", id: "1001", found: true},
		{email: "second@example.org", id: "1002", found: true},
		{email: "FIRST@EXAMPLE.ORG", id: "1001", found: true},
		{email: "nobody@example.org", found: false},
		{email: "other@example.org", found: false},
	}
	for _, tc := range testCases {
		t.Run(tc.email, func(t *testing.T) {
			id, found, err := dir.ParticipantIDByEmail(ctx, tc.email)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if id != tc.id || found != tc.found {
				t.Errorf("got (%s, %v), want (%s, %v)", id, found, tc.id, tc.found)
			}
		})
	}

	t.Run("unknown report", func(t *testing.T) {
		_, _, err := NewEmailDirectory(client, "7").ParticipantIDByEmail(ctx, "first@example.org")
		if err == nil {
			t.Error("should produce error")
		}
	})
}

func TestRegistryParticipantIDs(t *testing.T) {
	store := emulator.NewStore(testToken, FieldRegistryParticipantID)
	srv := httptest.NewServer(store.Handler())
	defer srv.Close()

	putRows(t, store,
		redcap.Record{FieldRegistryParticipantID: "1002", FieldEventName: EventRegistryEnrollment},
		redcap.Record{FieldRegistryParticipantID: "1001", FieldEventName: EventRegistryEnrollment},
		redcap.Record{FieldRegistryParticipantID: "1001", FieldEventName: "followup_arm_1"},
		redcap.Record{FieldRegistryParticipantID: "1003", FieldEventName: "followup_arm_1"},
	)

	client := redcap.ClientConfig{URL: srv.URL + "/", Token: testToken, Timeout: 5 * time.Second}
	ids, err := RegistryParticipantIDs(context.Background(), client, FieldRegistryParticipantID, EventRegistryEnrollment)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("unexpected ids: %v", ids)
	}
	seen := map[string]bool{ids[0]: true, ids[1]: true}
	if !seen["1001"] || !seen["1002"] {
		t.Errorf("unexpected ids: %v", ids)
	}

	t.Run("service error", func(t *testing.T) {
		store.FailWith("export failed")
		defer store.FailWith("")
		if _, err := RegistryParticipantIDs(context.Background(), client, FieldRegistryParticipantID, EventRegistryEnrollment); !redcap.IsServiceError(err) {
			t.Errorf("expected service error, got %v", err)
		}
	})
}

func TestStartRecord(t *testing.T) {
	row := StartRecord("abcd12345678", "1001", "basic_information_complete", "1")
	cols := StartRecordColumns("basic_information_complete")
	for _, c := range cols {
		if row[c] == "" {
			t.Errorf("column %s empty", c)
		}
	}
	if row[FieldEventName] != EventStart {
		t.Errorf("unexpected event: %s", row[FieldEventName])
	}
}
