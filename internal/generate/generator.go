// Package generate converts a photographed worksheet into a quiz by calling
// a generative vision model. The rest of the system treats it as an opaque
// boundary: image bytes in, exactly QuestionCount validated questions out,
// or a single error.
package generate

import (
	"context"

	"github.com/tranducminh/quizsnap/internal/quiz"
)

// DefaultQuestionCount is the number of questions a worksheet is turned into.
const DefaultQuestionCount = 10

// Generator produces a question set from a worksheet image.
type Generator interface {
	GenerateQuiz(ctx context.Context, image []byte, mimeType string) ([]quiz.Question, error)
}
