package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/amosWeiskopf/linkharvest/internal/models"
)

// Memory keeps links in process memory
type Memory struct {
	mu    sync.Mutex
	links []models.AcceptedLink
}

// NewMemory returns an empty in-memory store
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Append(_ context.Context, link models.AcceptedLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links = append(m.links, link)
	return nil
}

func (m *Memory) Links(_ context.Context, runID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var run []models.AcceptedLink
	for _, l := range m.links {
		if l.RunID == runID {
			run = append(run, l)
		}
	}
	if len(run) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	sort.SliceStable(run, func(i, j int) bool { return run[i].Sequence < run[j].Sequence })

	urls := make([]string, len(run))
	for i, l := range run {
		urls[i] = l.URL
	}
	return urls, nil
}

func (m *Memory) Runs(_ context.Context) ([]models.RunSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	index := map[string]int{}
	runs := []models.RunSummary{}
	for _, l := range m.links {
		i, ok := index[l.RunID]
		if !ok {
			index[l.RunID] = len(runs)
			runs = append(runs, models.RunSummary{RunID: l.RunID, StartedAt: l.DiscoveredAt})
			i = len(runs) - 1
		}
		runs[i].Links++
		if l.DiscoveredAt.Before(runs[i].StartedAt) {
			runs[i].StartedAt = l.DiscoveredAt
		}
	}
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].StartedAt.After(runs[j].StartedAt) })
	return runs, nil
}

// All returns a copy of every stored link
func (m *Memory) All() []models.AcceptedLink {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.AcceptedLink(nil), m.links...)
}

func (m *Memory) Close() error {
	return nil
}
