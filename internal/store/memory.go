package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/tranducminh/quizsnap/internal/leaderboard"
	"github.com/tranducminh/quizsnap/internal/quiz"
)

// Memory keeps both slots in process memory. It is the default backend for
// tests and for kiosks where losing the session on restart is acceptable.
type Memory struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{slots: make(map[string][]byte)}
}

func (m *Memory) LoadQuiz(_ context.Context) (quiz.Master, bool) {
	data, ok := m.read(slotQuiz)
	if !ok {
		return nil, false
	}
	return decodeQuiz(data)
}

func (m *Memory) SaveQuiz(_ context.Context, master quiz.Master) error {
	return m.write(slotQuiz, master)
}

func (m *Memory) ClearQuiz(_ context.Context) error {
	m.clear(slotQuiz)
	return nil
}

func (m *Memory) LoadBoard(_ context.Context) ([]leaderboard.Entry, bool) {
	data, ok := m.read(slotBoard)
	if !ok {
		return nil, false
	}
	return decodeBoard(data)
}

func (m *Memory) SaveBoard(_ context.Context, entries []leaderboard.Entry) error {
	return m.write(slotBoard, entries)
}

func (m *Memory) ClearBoard(_ context.Context) error {
	m.clear(slotBoard)
	return nil
}

func (m *Memory) read(slot string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.slots[slot]
	return data, ok
}

func (m *Memory) write(slot string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[slot] = data
	return nil
}

func (m *Memory) clear(slot string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, slot)
}
