package survey

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/iankuys/c2c-survey-app/pkg/identity"
	"github.com/iankuys/c2c-survey-app/pkg/records"
	"github.com/iankuys/c2c-survey-app/pkg/utils"
)

const OutroQuestionCount = 10

// OutroAnswers holds the answers to questions 1..10 at indexes 0..9.
type OutroAnswers [OutroQuestionCount]string

// OutroAnswersFromForm reads outro_q1..outro_q10 through get.
func OutroAnswersFromForm(get func(field string) string) OutroAnswers {
	answers := OutroAnswers{}
	for i := range answers {
		answers[i] = strings.TrimSpace(get(records.OutroAnswerField(i + 1)))
	}
	return answers
}

func (a OutroAnswers) missing() []int {
	missing := []int{}
	for i, v := range a {
		if v == "" {
			missing = append(missing, i+1)
		}
	}
	return missing
}

type OutroResult struct {
	Outcome  Outcome
	Identity identity.Identity
}

// OutroStatus decides whether the questionnaire may be shown.
func (e *Engine) OutroStatus(ctx context.Context, rawKey string) (OutroResult, error) {
	id, err := e.Authenticate(rawKey)
	if err != nil {
		return OutroResult{}, err
	}

	status, err := e.gateway.FetchCompletionStatus(ctx, id.AccessKey)
	if err != nil {
		return OutroResult{Identity: id}, err
	}
	if status.Finished() {
		slog.Info("already completed outro questionnaire", slog.String("accessKey", id.AccessKey))
		return OutroResult{Outcome: OutcomeThankYou, Identity: id}, nil
	}
	return OutroResult{Outcome: OutcomeServe, Identity: id}, nil
}

// SubmitOutro writes the questionnaire answers and closes the survey. A submission for a
// finished survey writes nothing.
func (e *Engine) SubmitOutro(ctx context.Context, rawKey string, answers OutroAnswers) (OutroResult, error) {
	id, err := e.Authenticate(rawKey)
	if err != nil {
		return OutroResult{}, err
	}

	status, err := e.gateway.FetchCompletionStatus(ctx, id.AccessKey)
	if err != nil {
		return OutroResult{Identity: id}, err
	}
	if status.Finished() {
		outroSubmissionsTotal.WithLabelValues("duplicate").Inc()
		slog.Info("ignoring repeated outro submission", slog.String("accessKey", id.AccessKey))
		return OutroResult{Outcome: OutcomeThankYou, Identity: id}, nil
	}

	if missing := answers.missing(); len(missing) > 0 {
		outroSubmissionsTotal.WithLabelValues("incomplete").Inc()
		return OutroResult{Outcome: OutcomeServe, Identity: id}, fmt.Errorf("%w: questions %v", ErrIncompleteOutro, missing)
	}

	endTime := utils.FormatRecordTimestamp(e.now())

	outroFields := map[string]string{
		records.FieldOutroComplete: records.StatusComplete,
	}
	for i, v := range answers {
		outroFields[records.OutroAnswerField(i+1)] = v
	}
	if _, err := e.gateway.WriteEvent(ctx, []records.RecordPatch{{
		AccessKey: id.AccessKey,
		Event:     records.EventOutro,
		Fields:    outroFields,
	}}); err != nil {
		return OutroResult{Identity: id}, err
	}

	if _, err := e.gateway.WriteEvent(ctx, []records.RecordPatch{{
		AccessKey: id.AccessKey,
		Event:     records.EventStart,
		Fields: map[string]string{
			records.FieldSurveyEnd:             endTime,
			records.FieldBasicInformationState: records.StatusComplete,
		},
	}}); err != nil {
		return OutroResult{Identity: id}, err
	}

	outroSubmissionsTotal.WithLabelValues("written").Inc()
	slog.Info("survey complete", slog.String("accessKey", id.AccessKey))
	return OutroResult{Outcome: OutcomeThankYou, Identity: id}, nil
}
