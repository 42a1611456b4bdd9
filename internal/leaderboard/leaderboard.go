package leaderboard

import (
	"sort"
	"strconv"
	"time"
)

// Entry is one recorded result for the active quiz. Entries are append-only:
// once recorded they are never mutated or removed individually, and the whole
// collection is cleared only when the master quiz is destroyed.
type Entry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Score       int    `json:"score"`
	TimeSeconds int    `json:"timeSeconds"`
}

// Ranked is an entry in display order with its rank and a hint marking the
// row belonging to the student who just submitted. The hint is never stored.
type Ranked struct {
	Entry
	Rank          int  `json:"rank"`
	IsCurrentUser bool `json:"isCurrentUser"`
}

// NewEntryID derives an entry ID from the submission instant. Nanosecond
// resolution makes collisions within a single shared-device session
// vanishingly unlikely.
func NewEntryID(now time.Time) string {
	return strconv.FormatInt(now.UnixNano(), 10)
}

// Rank returns the entries ordered by score descending, then by time
// ascending (faster wins ties), keeping insertion order for full ties.
// The input slice is not modified.
func Rank(entries []Entry, currentEntryID string) []Ranked {
	ordered := append([]Entry(nil), entries...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Score != ordered[j].Score {
			return ordered[i].Score > ordered[j].Score
		}
		return ordered[i].TimeSeconds < ordered[j].TimeSeconds
	})

	ranked := make([]Ranked, len(ordered))
	for i, e := range ordered {
		ranked[i] = Ranked{
			Entry:         e,
			Rank:          i + 1,
			IsCurrentUser: currentEntryID != "" && e.ID == currentEntryID,
		}
	}
	return ranked
}
