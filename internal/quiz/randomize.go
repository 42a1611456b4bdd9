package quiz

import (
	"math/rand"
	"time"
)

// NewRand returns the production randomness source for instance shuffling.
func NewRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// Randomize derives a per-student instance from the master: the question order
// is shuffled uniformly, then each question's options are shuffled
// independently with CorrectIndex moved to follow the correct text. The input
// is never mutated and question IDs pass through unchanged.
//
// If two options share the same text the relocated index points at the first
// occurrence. Which duplicate "wins" is therefore positional, not semantic.
func Randomize(master []Question, rng *rand.Rand) []Question {
	if rng == nil {
		rng = NewRand()
	}

	instance := cloneQuestions(master)
	rng.Shuffle(len(instance), func(i, j int) {
		instance[i], instance[j] = instance[j], instance[i]
	})

	for i := range instance {
		q := &instance[i]
		correctText := q.Options[q.CorrectIndex]
		rng.Shuffle(len(q.Options), func(a, b int) {
			q.Options[a], q.Options[b] = q.Options[b], q.Options[a]
		})
		for idx, opt := range q.Options {
			if opt == correctText {
				q.CorrectIndex = idx
				break
			}
		}
	}
	return instance
}
