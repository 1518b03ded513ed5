package survey

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	entriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "survey",
		Name:      "entries_total",
		Help:      "Entry evaluations by resulting participant state.",
	}, []string{"state"})

	allocatedScreensTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "survey",
		Name:      "allocated_screens_total",
		Help:      "Screens that received a freshly drawn video pair.",
	})

	screenRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "survey",
		Name:      "screen_requests_total",
		Help:      "Video screen requests by outcome.",
	}, []string{"outcome"})

	selectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "survey",
		Name:      "selections_recorded_total",
		Help:      "Video selections written to the records service.",
	})

	outroSubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "survey",
		Name:      "outro_submissions_total",
		Help:      "Outro questionnaire submissions by result.",
	}, []string{"result"})
)
