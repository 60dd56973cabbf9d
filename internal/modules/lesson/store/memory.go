package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/guan-wang/guans-lala-land/internal/domain/lesson"
)

// Memory is an in-process RecordStore, used for dry runs and tests.
type Memory struct {
	mu     sync.Mutex
	stores map[string]string
	items  map[string][]lesson.LearningItem
	seq    int

	// CreateErr and InsertErr, when set, fail the matching call.
	CreateErr error
	InsertErr func(item lesson.LearningItem) error
}

func NewMemory() *Memory {
	return &Memory{stores: map[string]string{}, items: map[string][]lesson.LearningItem{}}
}

func (m *Memory) CreateStore(_ context.Context, parentRef string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return "", m.CreateErr
	}
	m.seq++
	id := fmt.Sprintf("mem-store-%d", m.seq)
	m.stores[id] = parentRef
	return id, nil
}

func (m *Memory) InsertItem(_ context.Context, storeID string, item lesson.LearningItem) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.stores[storeID]; !ok {
		return "", fmt.Errorf("unknown store %q", storeID)
	}
	if m.InsertErr != nil {
		if err := m.InsertErr(item); err != nil {
			return "", err
		}
	}
	m.items[storeID] = append(m.items[storeID], item)
	return fmt.Sprintf("%s/item-%d", storeID, len(m.items[storeID])), nil
}

// Stores returns the number of stores created.
func (m *Memory) Stores() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stores)
}

func (m *Memory) Items(storeID string) []lesson.LearningItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]lesson.LearningItem(nil), m.items[storeID]...)
}
