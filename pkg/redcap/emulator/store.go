package emulator

import (
	"fmt"
	"sort"
	"sync"

	"github.com/iankuys/c2c-survey-app/pkg/redcap"
)

const EventNameField = "redcap_event_name"

// Store keeps records the way a longitudinal project does: one row per (record, event),
// merged on import.
type Store struct {
	mu sync.Mutex

	token         string
	recordIDField string

	records     map[string]*recordEntry
	recordOrder []string
	reports     map[string][]redcap.Record

	importCalls int
	exportCalls int
	failWith    string
}

type recordEntry struct {
	events     map[string]redcap.Record
	eventOrder []string
}

func NewStore(token string, recordIDField string) *Store {
	return &Store{
		token:         token,
		recordIDField: recordIDField,
		records:       map[string]*recordEntry{},
		reports:       map[string][]redcap.Record{},
	}
}

func (s *Store) RecordIDField() string {
	return s.recordIDField
}

// Put merges a row into the store without counting as an import call.
func (s *Store) Put(row redcap.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.merge(row)
}

func (s *Store) Get(recordID string, event string) (redcap.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.records[recordID]
	if !ok {
		return nil, false
	}
	row, ok := entry.events[event]
	if !ok {
		return nil, false
	}
	return copyRecord(row), true
}

func (s *Store) SetReport(reportID string, rows []redcap.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[reportID] = rows
}

// FailWith makes every following call answer with an error object. An empty message
// restores normal behaviour.
func (s *Store) FailWith(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = msg
}

func (s *Store) ImportCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.importCalls
}

func (s *Store) ExportCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exportCalls
}

func (s *Store) importRows(rows []redcap.Record) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.importCalls++

	for _, row := range rows {
		if row[s.recordIDField] == "" {
			return 0, fmt.Errorf("the record ID field '%s' is missing", s.recordIDField)
		}
		if row[EventNameField] == "" {
			return 0, fmt.Errorf("the '%s' field is required for longitudinal projects", EventNameField)
		}
	}

	written := map[string]bool{}
	for _, row := range rows {
		if err := s.merge(row); err != nil {
			return 0, err
		}
		written[row[s.recordIDField]] = true
	}
	return len(written), nil
}

func (s *Store) exportRows(recordIDs []string, fields []string, events []string) []redcap.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exportCalls++

	ids := recordIDs
	if len(ids) == 0 {
		ids = s.recordOrder
	}

	eventRank := map[string]int{}
	for i, e := range events {
		eventRank[e] = i
	}

	result := []redcap.Record{}
	for _, id := range ids {
		entry, ok := s.records[id]
		if !ok {
			continue
		}
		eventNames := []string{}
		for _, e := range entry.eventOrder {
			if len(events) > 0 {
				if _, wanted := eventRank[e]; !wanted {
					continue
				}
			}
			eventNames = append(eventNames, e)
		}
		if len(events) > 0 {
			sort.SliceStable(eventNames, func(i, j int) bool {
				return eventRank[eventNames[i]] < eventRank[eventNames[j]]
			})
		}

		for _, e := range eventNames {
			row := entry.events[e]
			out := redcap.Record{
				s.recordIDField: id,
				EventNameField:  e,
			}
			if len(fields) == 0 {
				for k, v := range row {
					out[k] = v
				}
			} else {
				for _, f := range fields {
					if f == s.recordIDField || f == EventNameField {
						continue
					}
					out[f] = row[f]
				}
			}
			result = append(result, out)
		}
	}
	return result
}

func (s *Store) report(reportID string) ([]redcap.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exportCalls++
	rows, ok := s.reports[reportID]
	return rows, ok
}

func (s *Store) failure() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failWith
}

// merge expects the lock to be held. Empty values never overwrite stored ones.
func (s *Store) merge(row redcap.Record) error {
	id := row[s.recordIDField]
	event := row[EventNameField]
	if id == "" || event == "" {
		return fmt.Errorf("row needs '%s' and '%s'", s.recordIDField, EventNameField)
	}

	entry, ok := s.records[id]
	if !ok {
		entry = &recordEntry{events: map[string]redcap.Record{}}
		s.records[id] = entry
		s.recordOrder = append(s.recordOrder, id)
	}
	stored, ok := entry.events[event]
	if !ok {
		stored = redcap.Record{}
		entry.events[event] = stored
		entry.eventOrder = append(entry.eventOrder, event)
	}
	for k, v := range row {
		if k == s.recordIDField || k == EventNameField {
			continue
		}
		if v == "" {
			if _, exists := stored[k]; exists {
				continue
			}
		}
		stored[k] = v
	}
	return nil
}

func copyRecord(r redcap.Record) redcap.Record {
	c := make(redcap.Record, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}
