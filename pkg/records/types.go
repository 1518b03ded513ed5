package records

import (
	"fmt"
	"strconv"
	"strings"
)

// Field names in the survey project.
const (
	FieldAccessKey     = "access_key"
	FieldEventName     = "redcap_event_name"
	FieldParticipantID = "c2c_id"
	FieldUserAgent     = "user_agent"

	FieldSurveyStart           = "survey_tm_start"
	FieldSurveyEnd             = "survey_tm_end"
	FieldSkipped               = "skipped"
	FieldBasicInformationState = "basic_information_complete"

	FieldPageServed = "page_served"

	FieldVideoA                = "video_a"
	FieldVideoB                = "video_b"
	FieldVideoComplete         = "video_complete"
	FieldVideoSelected         = "video_selected"
	FieldVideoSelectedPosition = "video_selected_position"
	FieldScreenStart           = "screen_tm_start"
	FieldScreenEnd             = "screen_tm_end"
	FieldVideoAWatchCount      = "video_a_watch_count"
	FieldVideoBWatchCount      = "video_b_watch_count"

	FieldOutroComplete = "outro_complete"
)

const (
	EventStart = "start_arm_1"
	EventIntro = "introscreen_arm_1"
	EventOutro = "outroscreen_arm_1"

	screenEventPrefix = "screen"
	eventSuffix       = "_arm_1"
)

const (
	// instrument status "Complete"
	StatusComplete = "2"
	SkippedYes     = "1"

	// UndefinedVideoID marks a screen whose pair was reserved but never chosen.
	UndefinedVideoID = "UNDEFINED"
)

func ScreenEvent(screen int) string {
	return fmt.Sprintf("%s%d%s", screenEventPrefix, screen, eventSuffix)
}

func ParseScreenEvent(event string) (int, bool) {
	if !strings.HasPrefix(event, screenEventPrefix) || !strings.HasSuffix(event, eventSuffix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(event, screenEventPrefix), eventSuffix))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func OutroAnswerField(question int) string {
	return fmt.Sprintf("outro_q%d", question)
}

// ScreenAssignment is the persisted video pair of one screen.
type ScreenAssignment struct {
	Screen    int
	VideoA    string
	VideoB    string
	Completed bool
}

// IsAllocated reports whether both videos hold real IDs.
func (a ScreenAssignment) IsAllocated() bool {
	return isVideoID(a.VideoA) && isVideoID(a.VideoB)
}

func isVideoID(id string) bool {
	return id != "" && id != UndefinedVideoID
}

type CompletionStatus struct {
	Skipped       bool
	OutroComplete bool
}

func (s CompletionStatus) Finished() bool {
	return s.Skipped || s.OutroComplete
}

type ResumePoint struct {
	MostRecentCompleted int
	// Next is the allocated pair of screen MostRecentCompleted+1, if any.
	Next *ScreenAssignment
}

// RecordPatch is merged into the record identified by (AccessKey, Event).
type RecordPatch struct {
	AccessKey string
	Event     string
	Fields    map[string]string
}

// MostRecentCompletedScreen returns the highest completed screen number, 0 if none.
func MostRecentCompletedScreen(assignments []ScreenAssignment) int {
	most := 0
	for _, a := range assignments {
		if a.Completed && a.Screen > most {
			most = a.Screen
		}
	}
	return most
}

func FindScreen(assignments []ScreenAssignment, screen int) (ScreenAssignment, bool) {
	for _, a := range assignments {
		if a.Screen == screen {
			return a, true
		}
	}
	return ScreenAssignment{}, false
}
