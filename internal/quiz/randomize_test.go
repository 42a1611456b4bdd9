package quiz

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildMaster(t *testing.T, n int) Master {
	t.Helper()
	questions := make([]Question, n)
	for i := range questions {
		questions[i] = Question{
			Text:         fmt.Sprintf("question %d", i),
			Options:      []string{fmt.Sprintf("a%d", i), fmt.Sprintf("b%d", i), fmt.Sprintf("c%d", i), fmt.Sprintf("d%d", i)},
			CorrectIndex: i % OptionCount,
			Explanation:  fmt.Sprintf("because %d", i),
		}
	}
	master, err := NewMaster(questions)
	require.NoError(t, err)
	return master
}

func TestNewMasterAssignsSequentialIDs(t *testing.T) {
	master := buildMaster(t, 10)
	for i, q := range master {
		assert.Equal(t, i, q.ID)
	}
}

func TestNewMasterRejectsMalformedQuestions(t *testing.T) {
	_, err := NewMaster([]Question{{Text: "q", Options: []string{"a", "b"}, CorrectIndex: 0}})
	assert.Error(t, err)

	_, err = NewMaster([]Question{{Text: "q", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 4}})
	assert.Error(t, err)

	_, err = NewMaster([]Question{{Text: "q", Options: []string{"a", "b", "c", "d"}, CorrectIndex: -1}})
	assert.Error(t, err)
}

func TestRandomizePreservesIdentity(t *testing.T) {
	master := buildMaster(t, 10)
	correctText := map[int]string{}
	for _, q := range master {
		correctText[q.ID] = q.Options[q.CorrectIndex]
	}

	instance := Randomize(master, rand.New(rand.NewSource(42)))
	require.Len(t, instance, 10)

	seen := map[int]bool{}
	for _, q := range instance {
		assert.False(t, seen[q.ID], "duplicate id %d", q.ID)
		seen[q.ID] = true
		assert.Equal(t, correctText[q.ID], q.Options[q.CorrectIndex],
			"correct option must still carry the original text")
		assert.Len(t, q.Options, OptionCount)
	}
	assert.Len(t, seen, 10)
}

func TestRandomizeDoesNotMutateMaster(t *testing.T) {
	master := buildMaster(t, 10)
	before := master.Clone()

	for i := 0; i < 5; i++ {
		Randomize(master, rand.New(rand.NewSource(int64(i))))
	}

	assert.Equal(t, before, []Question(master.Clone()))
}

func TestRandomizeEmptyInput(t *testing.T) {
	assert.Empty(t, Randomize(nil, rand.New(rand.NewSource(1))))
}

func TestRandomizeIsDeterministicPerSeed(t *testing.T) {
	master := buildMaster(t, 10)
	a := Randomize(master, rand.New(rand.NewSource(7)))
	b := Randomize(master, rand.New(rand.NewSource(7)))
	assert.Equal(t, a, b)
}

func TestRandomizeProducesDifferentPermutations(t *testing.T) {
	master := buildMaster(t, 10)

	orders := map[string]bool{}
	for seed := int64(0); seed < 20; seed++ {
		instance := Randomize(master, rand.New(rand.NewSource(seed)))
		key := ""
		for _, q := range instance {
			key += fmt.Sprintf("%d,", q.ID)
		}
		orders[key] = true
	}
	assert.Greater(t, len(orders), 1, "repeated shuffles should not collapse onto one ordering")
}

func TestRandomizeDuplicateOptionTextPicksFirstMatch(t *testing.T) {
	master, err := NewMaster([]Question{{
		Text:         "q",
		Options:      []string{"same", "same", "x", "y"},
		CorrectIndex: 1,
	}})
	require.NoError(t, err)

	instance := Randomize(master, rand.New(rand.NewSource(3)))
	q := instance[0]
	// First occurrence of the duplicated text wins, by contract.
	first := -1
	for i, opt := range q.Options {
		if opt == "same" {
			first = i
			break
		}
	}
	assert.Equal(t, first, q.CorrectIndex)
}
