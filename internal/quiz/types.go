package quiz

import "fmt"

// OptionCount is the fixed number of choices per question.
const OptionCount = 4

// Question is one multiple-choice item. ID is the question's position in the
// master sequence at creation time and never changes afterwards; it is the key
// used to record a student's answer after the order has been shuffled.
type Question struct {
	ID           int      `json:"id"`
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Explanation  string   `json:"explanation"`
}

// Master is the authoritative question set for the current teaching session,
// in generation order. It is immutable once built and is the shuffle source
// for every student instance.
type Master []Question

// StudentInfo identifies the student currently holding the device.
type StudentInfo struct {
	Name      string `json:"name"`
	ClassName string `json:"className"`
	School    string `json:"school"`
}

// AnswerSet maps question ID to the chosen option index. Partial sets are
// valid; unanswered questions simply score as incorrect.
type AnswerSet map[int]int

// NewMaster assigns sequential IDs by position and validates every question.
func NewMaster(questions []Question) (Master, error) {
	master := make(Master, len(questions))
	for i, q := range questions {
		q.ID = i
		if err := validate(q); err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		master[i] = q
	}
	return master, nil
}

func validate(q Question) error {
	if len(q.Options) != OptionCount {
		return fmt.Errorf("expected %d options, got %d", OptionCount, len(q.Options))
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return fmt.Errorf("correct index %d out of range", q.CorrectIndex)
	}
	return nil
}

// Clone deep-copies the master so callers can hand it out without exposing
// the backing option slices.
func (m Master) Clone() []Question {
	return cloneQuestions(m)
}

func cloneQuestions(qs []Question) []Question {
	out := make([]Question, len(qs))
	for i, q := range qs {
		q.Options = append([]string(nil), q.Options...)
		out[i] = q
	}
	return out
}
