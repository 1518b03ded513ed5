package survey

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/iankuys/c2c-survey-app/pkg/records"
)

func fullAnswers() OutroAnswers {
	answers := OutroAnswers{}
	for i := range answers {
		answers[i] = fmt.Sprintf("%d", i%5+1)
	}
	return answers
}

func TestOutroAnswersFromForm(t *testing.T) {
	form := map[string]string{
		"outro_q1":  " 1 ",
		"outro_q2":  "2",
		"outro_q10": "Strongly agree",
	}
	answers := OutroAnswersFromForm(func(field string) string { return form[field] })
	if answers[0] != "1" || answers[1] != "2" || answers[9] != "Strongly agree" {
		t.Errorf("unexpected answers: %v", answers)
	}
	if missing := answers.missing(); len(missing) != 7 || missing[0] != 3 {
		t.Errorf("unexpected missing questions: %v", missing)
	}
}

func TestOutroStatus(t *testing.T) {
	e, store := newTestEngine(t, 20, 7)
	seedScreens(t, store, testKey, 7, 7)
	ctx := context.Background()

	res, err := e.OutroStatus(ctx, testKey)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != OutcomeServe {
		t.Errorf("expected the questionnaire, got %s", res.Outcome)
	}

	putRows(t, store, finishedRows(testKey, false))
	res, err = e.OutroStatus(ctx, testKey)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != OutcomeThankYou {
		t.Errorf("expected thank you, got %s", res.Outcome)
	}

	if _, err := e.OutroStatus(ctx, "zzzz12345678"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}
	if store.ImportCalls() != 0 {
		t.Error("viewing the outro must not write")
	}
}

func TestSubmitOutro(t *testing.T) {
	e, store := newTestEngine(t, 20, 7)
	seedScreens(t, store, testKey, 7, 7)
	ctx := context.Background()

	t.Run("incomplete answers", func(t *testing.T) {
		answers := fullAnswers()
		answers[4] = ""
		res, err := e.SubmitOutro(ctx, testKey, answers)
		if !errors.Is(err, ErrIncompleteOutro) {
			t.Fatalf("expected ErrIncompleteOutro, got %v", err)
		}
		if res.Outcome != OutcomeServe {
			t.Errorf("questionnaire should be shown again, got %s", res.Outcome)
		}
		if store.ImportCalls() != 0 {
			t.Error("incomplete answers must not be written")
		}
	})

	t.Run("first submission", func(t *testing.T) {
		res, err := e.SubmitOutro(ctx, testKey, fullAnswers())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Outcome != OutcomeThankYou {
			t.Errorf("unexpected outcome: %s", res.Outcome)
		}
		if store.ImportCalls() != 2 {
			t.Errorf("expected outro and start record writes, got %d imports", store.ImportCalls())
		}

		outro := mustGet(t, store, testKey, records.EventOutro)
		if outro[records.FieldOutroComplete] != records.StatusComplete {
			t.Errorf("outro not marked complete: %v", outro)
		}
		for i, v := range fullAnswers() {
			if outro[records.OutroAnswerField(i+1)] != v {
				t.Errorf("question %d: got %q, want %q", i+1, outro[records.OutroAnswerField(i+1)], v)
			}
		}

		start := mustGet(t, store, testKey, records.EventStart)
		if start[records.FieldSurveyEnd] != "2024-05-01 10:30:00" || start[records.FieldBasicInformationState] != records.StatusComplete {
			t.Errorf("unexpected start record: %v", start)
		}
	})

	t.Run("repeated submission", func(t *testing.T) {
		imports := store.ImportCalls()
		res, err := e.SubmitOutro(ctx, testKey, fullAnswers())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Outcome != OutcomeThankYou {
			t.Errorf("unexpected outcome: %s", res.Outcome)
		}
		if store.ImportCalls() != imports {
			t.Error("a repeated submission must not write")
		}
	})

	t.Run("everything redirects once finished", func(t *testing.T) {
		imports := store.ImportCalls()

		entry, err := e.Enter(ctx, EntryRequest{RawKey: testKey})
		if err != nil || entry.State != StateComplete {
			t.Errorf("entry: %+v, %v", entry, err)
		}
		screen, err := e.ServeScreen(ctx, testKey, "1")
		if err != nil || screen.Outcome != OutcomeThankYou {
			t.Errorf("videos: %+v, %v", screen, err)
		}
		outro, err := e.OutroStatus(ctx, testKey)
		if err != nil || outro.Outcome != OutcomeThankYou {
			t.Errorf("outro: %+v, %v", outro, err)
		}
		if store.ImportCalls() != imports {
			t.Error("no writes are allowed after completion")
		}
	})
}
