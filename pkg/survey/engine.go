package survey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/iankuys/c2c-survey-app/pkg/accesskey"
	"github.com/iankuys/c2c-survey-app/pkg/identity"
	"github.com/iankuys/c2c-survey-app/pkg/records"
	"github.com/iankuys/c2c-survey-app/pkg/utils"
	"github.com/iankuys/c2c-survey-app/pkg/videopool"
)

// Gateway is the part of the records service the engine depends on.
type Gateway interface {
	FetchScreenAssignments(ctx context.Context, accessKey string) ([]records.ScreenAssignment, error)
	FetchCompletionStatus(ctx context.Context, accessKey string) (records.CompletionStatus, error)
	ComputeResumePoint(ctx context.Context, accessKey string, includeNext bool) (records.ResumePoint, error)
	WriteEvent(ctx context.Context, patches []records.RecordPatch) (int, error)
}

// Engine decides where a participant stands in the survey. It keeps no state between
// requests: every decision is derived from the records service.
type Engine struct {
	gateway    Gateway
	pool       *videopool.Pool
	resolver   *identity.Resolver
	sanitizer  accesskey.Sanitizer
	maxScreens int

	now     func() time.Time
	shuffle func(ids []string)
}

func NewEngine(
	gateway Gateway,
	pool *videopool.Pool,
	resolver *identity.Resolver,
	sanitizer accesskey.Sanitizer,
	maxScreens int,
) (*Engine, error) {
	if maxScreens < 1 {
		return nil, errors.New("max screens must be at least 1")
	}
	if pool == nil || resolver == nil || gateway == nil {
		return nil, errors.New("gateway, video pool and resolver are required")
	}
	if err := pool.CheckCapacity(maxScreens); err != nil {
		return nil, err
	}
	return &Engine{
		gateway:    gateway,
		pool:       pool,
		resolver:   resolver,
		sanitizer:  sanitizer,
		maxScreens: maxScreens,
		now:        time.Now,
		shuffle: func(ids []string) {
			rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
		},
	}, nil
}

func (e *Engine) MaxScreens() int {
	return e.maxScreens
}

// Authenticate sanitizes a raw key and resolves it against the mapping.
func (e *Engine) Authenticate(rawKey string) (identity.Identity, error) {
	key, ok := e.sanitizer.Sanitize(rawKey)
	if !ok {
		return identity.Identity{}, ErrInvalidKeyFormat
	}
	id, err := e.resolver.ResolveByKey(key)
	if err != nil {
		return identity.Identity{}, ErrKeyNotFound
	}
	return id, nil
}

type EntryRequest struct {
	RawKey    string
	Skip      bool
	UserAgent string
}

type EntryResult struct {
	State    State
	Identity identity.Identity
	// ResumeScreen is set for StateNew and StateInProgress.
	ResumeScreen int
}

// Enter evaluates a participant arriving at the landing page, allocating videos for new
// participants.
func (e *Engine) Enter(ctx context.Context, req EntryRequest) (EntryResult, error) {
	id, err := e.Authenticate(req.RawKey)
	if err != nil {
		entriesTotal.WithLabelValues(StateInvalidKey.String()).Inc()
		return EntryResult{State: StateInvalidKey}, err
	}

	result, err := e.enter(ctx, id, req)
	if err != nil {
		return EntryResult{Identity: id}, err
	}
	entriesTotal.WithLabelValues(result.State.String()).Inc()
	return result, nil
}

func (e *Engine) enter(ctx context.Context, id identity.Identity, req EntryRequest) (EntryResult, error) {
	status, err := e.gateway.FetchCompletionStatus(ctx, id.AccessKey)
	if err != nil {
		return EntryResult{}, err
	}
	if status.Finished() {
		slog.Info("already finished survey", slog.String("accessKey", id.AccessKey))
		return EntryResult{State: StateComplete, Identity: id}, nil
	}

	if req.Skip {
		if err := e.writeSkip(ctx, id, req.UserAgent); err != nil {
			return EntryResult{}, err
		}
		slog.Info("elected to skip the survey", slog.String("accessKey", id.AccessKey))
		return EntryResult{State: StateSkipped, Identity: id}, nil
	}

	assignments, err := e.gateway.FetchScreenAssignments(ctx, id.AccessKey)
	if err != nil {
		return EntryResult{}, err
	}

	if len(assignments) == 0 {
		if err := e.startSurvey(ctx, id, req.UserAgent); err != nil {
			return EntryResult{}, err
		}
		return EntryResult{State: StateNew, Identity: id, ResumeScreen: 1}, nil
	}

	if err := e.fillMissingScreens(ctx, id, assignments); err != nil {
		return EntryResult{}, err
	}

	resume := records.MostRecentCompletedScreen(assignments) + 1
	slog.Info("resuming survey", slog.String("accessKey", id.AccessKey), slog.Int("resumeScreen", resume))
	if resume > e.maxScreens {
		return EntryResult{State: StateAwaitingOutro, Identity: id}, nil
	}
	return EntryResult{State: StateInProgress, Identity: id, ResumeScreen: resume}, nil
}

// CheckResult is the key a /check submission resolves to.
type CheckResult struct {
	Key      string
	ViaEmail bool
	Identity identity.Identity
}

// ResolveCheckInput interprets a submitted value as an email address if it looks like
// one, as a literal access key otherwise. Literal keys are not validated here.
func (e *Engine) ResolveCheckInput(ctx context.Context, input string) (CheckResult, error) {
	input = strings.TrimSpace(input)
	if !accesskey.IsEmailAddress(input) {
		return CheckResult{Key: input}, nil
	}

	id, err := e.resolver.ResolveByEmail(ctx, input)
	if err != nil {
		if errors.Is(err, identity.ErrKeyNotFound) {
			return CheckResult{ViaEmail: true}, ErrKeyNotFound
		}
		return CheckResult{ViaEmail: true}, err
	}
	return CheckResult{Key: id.AccessKey, ViaEmail: true, Identity: id}, nil
}

func (e *Engine) writeSkip(ctx context.Context, id identity.Identity, userAgent string) error {
	_, err := e.gateway.WriteEvent(ctx, []records.RecordPatch{{
		AccessKey: id.AccessKey,
		Event:     records.EventStart,
		Fields: map[string]string{
			records.FieldParticipantID:         id.ParticipantID,
			records.FieldUserAgent:             userAgent,
			records.FieldSurveyEnd:             utils.FormatRecordTimestamp(e.now()),
			records.FieldSkipped:               records.SkippedYes,
			records.FieldBasicInformationState: records.StatusComplete,
		},
	}})
	return err
}

// startSurvey allocates every screen's pair and writes them together with the start record
// in a single import.
func (e *Engine) startSurvey(ctx context.Context, id identity.Identity, userAgent string) error {
	pairs, err := e.drawPairs(nil, e.maxScreens)
	if err != nil {
		return err
	}

	patches := make([]records.RecordPatch, 0, e.maxScreens+1)
	patches = append(patches, records.RecordPatch{
		AccessKey: id.AccessKey,
		Event:     records.EventStart,
		Fields: map[string]string{
			records.FieldParticipantID: id.ParticipantID,
			records.FieldSurveyStart:   utils.FormatRecordTimestamp(e.now()),
			records.FieldUserAgent:     userAgent,
		},
	})
	for i, pair := range pairs {
		patches = append(patches, screenPatch(id.AccessKey, i+1, pair))
	}

	if _, err := e.gateway.WriteEvent(ctx, patches); err != nil {
		return err
	}
	allocatedScreensTotal.Add(float64(len(pairs)))
	slog.Info("created new survey record",
		slog.String("accessKey", id.AccessKey),
		slog.String("participantID", id.ParticipantID),
		slog.Any("videos", flattenPairs(pairs)),
	)
	return nil
}

// fillMissingScreens allocates pairs only for screens that have no record or still hold
// placeholders. Persisted pairs are never touched.
func (e *Engine) fillMissingScreens(ctx context.Context, id identity.Identity, assignments []records.ScreenAssignment) error {
	used := map[string]bool{}
	for _, a := range assignments {
		if a.IsAllocated() {
			used[a.VideoA] = true
			used[a.VideoB] = true
		}
	}

	missing := []int{}
	for s := 1; s <= e.maxScreens; s++ {
		a, ok := records.FindScreen(assignments, s)
		if ok && (a.IsAllocated() || a.Completed) {
			continue
		}
		missing = append(missing, s)
	}
	if len(missing) == 0 {
		return nil
	}

	pairs, err := e.drawPairs(used, len(missing))
	if err != nil {
		return err
	}
	patches := make([]records.RecordPatch, 0, len(missing))
	for i, s := range missing {
		patches = append(patches, screenPatch(id.AccessKey, s, pairs[i]))
	}
	if _, err := e.gateway.WriteEvent(ctx, patches); err != nil {
		return err
	}
	allocatedScreensTotal.Add(float64(len(pairs)))
	slog.Warn("allocated videos for incomplete screen records",
		slog.String("accessKey", id.AccessKey),
		slog.Any("screens", missing),
	)
	return nil
}

type videoPair [2]string

// drawPairs shuffles the pool IDs not in exclude and slices the first 2*count of them into
// consecutive pairs.
func (e *Engine) drawPairs(exclude map[string]bool, count int) ([]videoPair, error) {
	candidates := make([]string, 0, e.pool.Len())
	for _, vid := range e.pool.IDs() {
		if !exclude[vid] {
			candidates = append(candidates, vid)
		}
	}
	if len(candidates) < 2*count {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrPoolExhausted, 2*count, len(candidates))
	}

	e.shuffle(candidates)
	pairs := make([]videoPair, count)
	for i := range pairs {
		pairs[i] = videoPair{candidates[2*i], candidates[2*i+1]}
	}
	return pairs, nil
}

func screenPatch(accessKey string, screen int, pair videoPair) records.RecordPatch {
	return records.RecordPatch{
		AccessKey: accessKey,
		Event:     records.ScreenEvent(screen),
		Fields: map[string]string{
			records.FieldVideoA: pair[0],
			records.FieldVideoB: pair[1],
		},
	}
}

func flattenPairs(pairs []videoPair) []string {
	ids := make([]string, 0, 2*len(pairs))
	for _, p := range pairs {
		ids = append(ids, p[0], p[1])
	}
	return ids
}
