package videopool

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
)

// Pool is the read-only catalog of videos a participant can be shown.
type Pool struct {
	ids  []string
	urls map[string]string
}

func New(urls map[string]string) *Pool {
	p := &Pool{
		ids:  make([]string, 0, len(urls)),
		urls: make(map[string]string, len(urls)),
	}
	for id, u := range urls {
		p.ids = append(p.ids, id)
		p.urls[id] = u
	}
	sort.Strings(p.ids)
	return p
}

// LoadFromFile reads a JSON object mapping video IDs to playable URLs.
func LoadFromFile(path string) (*Pool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	urls := map[string]string{}
	if err := json.Unmarshal(content, &urls); err != nil {
		return nil, fmt.Errorf("could not parse video file %s: %w", path, err)
	}
	for id, u := range urls {
		if id == "" || u == "" {
			return nil, errors.New("video file " + path + " contains an empty id or url")
		}
	}
	return New(urls), nil
}

// CheckCapacity returns an error if the pool cannot supply two distinct videos for each
// of maxScreens screens.
func (p *Pool) CheckCapacity(maxScreens int) error {
	needed := 2 * maxScreens
	if needed > len(p.ids) {
		return fmt.Errorf("number of videos to allocate (%d) is greater than the number of videos that exist (%d)", needed, len(p.ids))
	}
	return nil
}

// IDs returns a fresh copy of all video IDs in sorted order.
func (p *Pool) IDs() []string {
	ids := make([]string, len(p.ids))
	copy(ids, p.ids)
	return ids
}

func (p *Pool) URL(id string) (string, bool) {
	u, ok := p.urls[id]
	return u, ok
}

func (p *Pool) Contains(id string) bool {
	_, ok := p.urls[id]
	return ok
}

func (p *Pool) Len() int {
	return len(p.ids)
}
