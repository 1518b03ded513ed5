package identity

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	ColumnParticipantID = "record_id"
	ColumnAccessKey     = "access_key"
)

// Mapping is the bijection between access keys and participant IDs. It is loaded once
// and read concurrently afterwards.
type Mapping struct {
	keyToID map[string]string
	idToKey map[string]string
}

func NewMapping(keyToID map[string]string) (*Mapping, error) {
	m := &Mapping{
		keyToID: make(map[string]string, len(keyToID)),
		idToKey: make(map[string]string, len(keyToID)),
	}
	for key, id := range keyToID {
		if err := m.add(key, id); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func LoadMappingCSV(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadMappingCSV(f)
}

// ReadMappingCSV expects a header row with at least the record_id and access_key columns.
func ReadMappingCSV(r io.Reader) (*Mapping, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("mapping file is empty")
		}
		return nil, err
	}

	idCol, keyCol := -1, -1
	for i, col := range header {
		switch strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")) {
		case ColumnParticipantID:
			idCol = i
		case ColumnAccessKey:
			keyCol = i
		}
	}
	if idCol < 0 || keyCol < 0 {
		return nil, fmt.Errorf("mapping file needs the columns '%s' and '%s'", ColumnParticipantID, ColumnAccessKey)
	}

	m := &Mapping{
		keyToID: map[string]string{},
		idToKey: map[string]string{},
	}
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, err
		}
		if idCol >= len(row) || keyCol >= len(row) {
			return nil, fmt.Errorf("line %d: too few columns", line)
		}
		id := strings.TrimSpace(row[idCol])
		key := strings.TrimSpace(row[keyCol])
		if id == "" && key == "" {
			continue
		}
		if err := m.add(key, id); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}

	if m.Len() == 0 {
		return nil, errors.New("mapping file has no entries")
	}
	return m, nil
}

func (m *Mapping) add(key string, id string) error {
	if key == "" || id == "" {
		return errors.New("access key and participant ID must not be empty")
	}
	if other, ok := m.keyToID[key]; ok && other != id {
		return fmt.Errorf("access key %s is mapped twice", key)
	}
	if other, ok := m.idToKey[id]; ok && other != key {
		return fmt.Errorf("participant %s has more than one access key", id)
	}
	m.keyToID[key] = id
	m.idToKey[id] = key
	return nil
}

func (m *Mapping) ParticipantID(accessKey string) (string, bool) {
	id, ok := m.keyToID[accessKey]
	return id, ok
}

func (m *Mapping) AccessKey(participantID string) (string, bool) {
	key, ok := m.idToKey[participantID]
	return key, ok
}

func (m *Mapping) Len() int {
	return len(m.keyToID)
}

// WriteMappingCSV writes ids in the format ReadMappingCSV reads.
func WriteMappingCSV(w io.Writer, ids []Identity) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{ColumnParticipantID, ColumnAccessKey}); err != nil {
		return err
	}
	for _, id := range ids {
		if err := writer.Write([]string{id.ParticipantID, id.AccessKey}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
