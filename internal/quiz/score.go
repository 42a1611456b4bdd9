package quiz

// Score counts how many questions in the instance were answered with the
// correct option index. A missing answer counts as incorrect. With a
// 10-question instance the result is always in [0,10].
func Score(instance []Question, answers AnswerSet) int {
	correct := 0
	for _, q := range instance {
		if chosen, ok := answers[q.ID]; ok && chosen == q.CorrectIndex {
			correct++
		}
	}
	return correct
}
