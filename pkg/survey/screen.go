package survey

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/iankuys/c2c-survey-app/pkg/identity"
	"github.com/iankuys/c2c-survey-app/pkg/records"
	"github.com/iankuys/c2c-survey-app/pkg/utils"
)

// VideoSlot is one of the two videos of a screen. Position counts across the whole
// survey: screen s shows positions 2s-1 and 2s.
type VideoSlot struct {
	Position int
	ID       string
	URL      string
}

type ScreenView struct {
	Screen     int
	MaxScreens int
	VideoA     VideoSlot
	VideoB     VideoSlot
}

type ScreenResult struct {
	Outcome  Outcome
	Identity identity.Identity
	// Requested is the screen number the client asked for.
	Requested int
	// View is set for OutcomeServe.
	View *ScreenView
}

// ServeScreen resolves which screen a participant sees. The requested number is only
// advisory: the resume point computed from the records service always wins.
func (e *Engine) ServeScreen(ctx context.Context, rawKey string, rawScreen string) (ScreenResult, error) {
	id, err := e.Authenticate(rawKey)
	if err != nil {
		return ScreenResult{}, err
	}

	result, err := e.serveScreen(ctx, id, rawScreen)
	if err != nil {
		return ScreenResult{Identity: id}, err
	}
	screenRequestsTotal.WithLabelValues(result.Outcome.String()).Inc()
	return result, nil
}

func (e *Engine) serveScreen(ctx context.Context, id identity.Identity, rawScreen string) (ScreenResult, error) {
	status, err := e.gateway.FetchCompletionStatus(ctx, id.AccessKey)
	if err != nil {
		return ScreenResult{}, err
	}
	if status.Finished() {
		return ScreenResult{Outcome: OutcomeThankYou, Identity: id}, nil
	}

	requested, err := parseScreenParam(rawScreen)
	if err != nil {
		return ScreenResult{}, err
	}

	rp, err := e.gateway.ComputeResumePoint(ctx, id.AccessKey, true)
	if err != nil {
		return ScreenResult{}, err
	}
	resume := rp.MostRecentCompleted + 1
	if resume > e.maxScreens {
		return ScreenResult{Outcome: OutcomeOutro, Identity: id, Requested: requested}, nil
	}
	if requested > e.maxScreens {
		slog.Warn("requested screen beyond the last one",
			slog.String("accessKey", id.AccessKey),
			slog.Int("requested", requested),
			slog.Int("resumeScreen", resume),
		)
		return ScreenResult{Outcome: OutcomeFallback, Identity: id, Requested: requested}, nil
	}
	if requested != resume {
		slog.Info("requested screen differs from resume point, serving resume point",
			slog.String("accessKey", id.AccessKey),
			slog.Int("requested", requested),
			slog.Int("resumeScreen", resume),
		)
	}

	if rp.Next == nil {
		return ScreenResult{}, fmt.Errorf("%w: screen %d", ErrScreenUnavailable, resume)
	}
	view, err := e.screenView(resume, *rp.Next)
	if err != nil {
		return ScreenResult{}, err
	}

	slog.Info("starting screen",
		slog.String("accessKey", id.AccessKey),
		slog.Int("screen", resume),
		slog.String("videoA", view.VideoA.ID),
		slog.String("videoB", view.VideoB.ID),
	)
	return ScreenResult{Outcome: OutcomeServe, Identity: id, Requested: requested, View: view}, nil
}

func (e *Engine) screenView(screen int, pair records.ScreenAssignment) (*ScreenView, error) {
	urlA, okA := e.pool.URL(pair.VideoA)
	urlB, okB := e.pool.URL(pair.VideoB)
	if !okA || !okB {
		return nil, fmt.Errorf("%w: screen %d references videos outside the catalog (%s, %s)", ErrScreenUnavailable, screen, pair.VideoA, pair.VideoB)
	}
	return &ScreenView{
		Screen:     screen,
		MaxScreens: e.maxScreens,
		VideoA:     VideoSlot{Position: 2*screen - 1, ID: pair.VideoA, URL: urlA},
		VideoB:     VideoSlot{Position: 2 * screen, ID: pair.VideoB, URL: urlB},
	}, nil
}

func parseScreenParam(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrMalformedScreenRequest
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, ErrMalformedScreenRequest
	}
	return n, nil
}

// Selection is what the browser reports after both videos of a screen were watched.
type Selection struct {
	VideoID  string
	Position int

	ScreenStart      string
	ScreenEnd        string
	VideoAWatchCount int
	VideoBWatchCount int
	UserAgent        string
}

type SelectionResult struct {
	Outcome  Outcome
	Identity identity.Identity
	// Screen is the screen the selection was recorded for.
	Screen int
	// NextScreen is set for OutcomeNextScreen.
	NextScreen int
}

// RecordSelection marks the current screen complete with the chosen video. The screen is
// always the server-side resume point.
func (e *Engine) RecordSelection(ctx context.Context, rawKey string, sel Selection) (SelectionResult, error) {
	id, err := e.Authenticate(rawKey)
	if err != nil {
		return SelectionResult{}, err
	}

	status, err := e.gateway.FetchCompletionStatus(ctx, id.AccessKey)
	if err != nil {
		return SelectionResult{Identity: id}, err
	}
	if status.Finished() {
		return SelectionResult{Outcome: OutcomeThankYou, Identity: id}, nil
	}

	rp, err := e.gateway.ComputeResumePoint(ctx, id.AccessKey, true)
	if err != nil {
		return SelectionResult{Identity: id}, err
	}
	screen := rp.MostRecentCompleted + 1
	if screen > e.maxScreens {
		return SelectionResult{Outcome: OutcomeOutro, Identity: id}, nil
	}
	if rp.Next == nil {
		return SelectionResult{Identity: id}, fmt.Errorf("%w: screen %d", ErrScreenUnavailable, screen)
	}

	position, err := selectedPosition(screen, *rp.Next, sel)
	if err != nil {
		return SelectionResult{Identity: id}, err
	}

	ts := utils.FormatRecordTimestamp(e.now())
	fields := map[string]string{
		records.FieldVideoComplete:         records.StatusComplete,
		records.FieldVideoSelected:         sel.VideoID,
		records.FieldVideoSelectedPosition: strconv.Itoa(position),
		records.FieldScreenStart:           timestampOr(sel.ScreenStart, ts),
		records.FieldScreenEnd:             timestampOr(sel.ScreenEnd, ts),
		records.FieldVideoAWatchCount:      strconv.Itoa(sel.VideoAWatchCount),
		records.FieldVideoBWatchCount:      strconv.Itoa(sel.VideoBWatchCount),
		records.FieldUserAgent:             sel.UserAgent,
	}
	if _, err := e.gateway.WriteEvent(ctx, []records.RecordPatch{{
		AccessKey: id.AccessKey,
		Event:     records.ScreenEvent(screen),
		Fields:    fields,
	}}); err != nil {
		return SelectionResult{Identity: id}, err
	}
	selectionsTotal.Inc()
	slog.Info("video selected",
		slog.String("accessKey", id.AccessKey),
		slog.Int("screen", screen),
		slog.String("videoID", sel.VideoID),
		slog.Int("position", position),
	)

	if screen == e.maxScreens {
		return SelectionResult{Outcome: OutcomeOutro, Identity: id, Screen: screen}, nil
	}
	return SelectionResult{Outcome: OutcomeNextScreen, Identity: id, Screen: screen, NextScreen: screen + 1}, nil
}

func selectedPosition(screen int, pair records.ScreenAssignment, sel Selection) (int, error) {
	var position int
	switch sel.VideoID {
	case pair.VideoA:
		position = 2*screen - 1
	case pair.VideoB:
		position = 2 * screen
	default:
		return 0, fmt.Errorf("%w: %s on screen %d", ErrInvalidSelection, sel.VideoID, screen)
	}
	if sel.Position != 0 && sel.Position != position {
		return 0, fmt.Errorf("%w: position %d does not match video %s", ErrInvalidSelection, sel.Position, sel.VideoID)
	}
	return position, nil
}

// timestampOr keeps browser timestamps only when they are in the record layout.
func timestampOr(v string, fallback string) string {
	v = strings.TrimSpace(v)
	if !utils.IsRecordTimestamp(v) {
		return fallback
	}
	return v
}

type IntroResult struct {
	Outcome  Outcome
	Identity identity.Identity
}

// RecordIntroView stores when the intro page was served.
func (e *Engine) RecordIntroView(ctx context.Context, rawKey string) (IntroResult, error) {
	id, err := e.Authenticate(rawKey)
	if err != nil {
		return IntroResult{}, err
	}

	status, err := e.gateway.FetchCompletionStatus(ctx, id.AccessKey)
	if err != nil {
		return IntroResult{Identity: id}, err
	}
	if status.Finished() {
		return IntroResult{Outcome: OutcomeThankYou, Identity: id}, nil
	}

	if _, err := e.gateway.WriteEvent(ctx, []records.RecordPatch{{
		AccessKey: id.AccessKey,
		Event:     records.EventIntro,
		Fields: map[string]string{
			records.FieldPageServed: utils.FormatRecordTimestamp(e.now()),
		},
	}}); err != nil {
		return IntroResult{Identity: id}, err
	}
	return IntroResult{Outcome: OutcomeServe, Identity: id}, nil
}
