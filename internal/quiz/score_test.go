package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreCountsOnlyExactMatches(t *testing.T) {
	master := buildMaster(t, 10)
	instance := master.Clone()

	answers := AnswerSet{
		0: instance[0].CorrectIndex,
		1: (instance[1].CorrectIndex + 1) % OptionCount,
	}

	assert.Equal(t, 1, Score(instance, answers))
}

func TestScoreUnansweredIsZero(t *testing.T) {
	master := buildMaster(t, 10)
	assert.Equal(t, 0, Score(master.Clone(), AnswerSet{}))
	assert.Equal(t, 0, Score(master.Clone(), nil))
}

func TestScorePerfect(t *testing.T) {
	master := buildMaster(t, 10)
	instance := master.Clone()
	answers := AnswerSet{}
	for _, q := range instance {
		answers[q.ID] = q.CorrectIndex
	}
	assert.Equal(t, 10, Score(instance, answers))
}

func TestScoreUsesInstanceLayoutNotMaster(t *testing.T) {
	master := buildMaster(t, 10)
	instance := Randomize(master, nil)

	answers := AnswerSet{}
	for _, q := range instance {
		answers[q.ID] = q.CorrectIndex
	}
	assert.Equal(t, 10, Score(instance, answers))
}
