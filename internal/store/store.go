// Package store persists the active quiz and its leaderboard so a kiosk
// restart does not lose the teaching session. There are exactly two logical
// slots; each holds one JSON blob that is rewritten whole on every mutation.
// Reads fail soft: missing or malformed data is reported as absent, never as
// a fatal error.
package store

import (
	"context"
	"encoding/json"

	"github.com/tranducminh/quizsnap/internal/leaderboard"
	"github.com/tranducminh/quizsnap/internal/quiz"
)

// Slot names under which blobs are kept.
const (
	slotQuiz  = "active_quiz"
	slotBoard = "leaderboard"
)

// Store is the persistence boundary used by the session machine.
type Store interface {
	// LoadQuiz returns the persisted master quiz, or ok=false when absent
	// or unreadable.
	LoadQuiz(ctx context.Context) (quiz.Master, bool)
	SaveQuiz(ctx context.Context, master quiz.Master) error
	ClearQuiz(ctx context.Context) error

	// LoadBoard returns the persisted leaderboard entries, or ok=false when
	// absent or unreadable.
	LoadBoard(ctx context.Context) ([]leaderboard.Entry, bool)
	SaveBoard(ctx context.Context, entries []leaderboard.Entry) error
	ClearBoard(ctx context.Context) error
}

func decodeQuiz(data []byte) (quiz.Master, bool) {
	var master quiz.Master
	if err := json.Unmarshal(data, &master); err != nil {
		return nil, false
	}
	return master, true
}

func decodeBoard(data []byte) ([]leaderboard.Entry, bool) {
	var entries []leaderboard.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, false
	}
	return entries, true
}
