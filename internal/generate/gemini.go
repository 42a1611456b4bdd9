package generate

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tranducminh/quizsnap/internal/quiz"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// The model answers in Vietnamese with LaTeX kept inside $...$ pairs; the
// kiosk UI renders the delimiters, this package only passes them through.
const promptTemplate = `Bạn là một gia sư toán học chuyên nghiệp.
Nhiệm vụ: phân tích ảnh đề toán được cung cấp và tạo một bộ đề trắc nghiệm gồm đúng %d câu hỏi.

Hướng dẫn:
1. Nếu ảnh đã chứa câu hỏi hoặc bài tập, ưu tiên trích xuất nguyên văn, giữ nguyên tuyệt đối công thức và số liệu.
2. Nếu ảnh không đủ %d câu, tự tạo thêm câu hỏi cùng dạng, cùng chủ đề, cùng độ khó cho đủ.
3. Mỗi câu có đúng 4 phương án (A, B, C, D) và một lời giải thích chi tiết.
4. Mọi công thức toán phải viết bằng LaTeX trong cặp dấu $ (ví dụ: $x^2 - 4x + 3 = 0$).
5. Ngôn ngữ: tiếng Việt.

Trả về JSON thuần, là một mảng các phần tử dạng:
{"text": "...", "options": ["...", "...", "...", "..."], "correctIndex": 0, "explanation": "..."}`

// GeminiConfig holds connection details for the Gemini API.
type GeminiConfig struct {
	APIKey        string
	Model         string
	BaseURL       string
	Timeout       time.Duration
	QuestionCount int
}

// Gemini implements Generator against the generateContent REST endpoint.
type Gemini struct {
	httpClient    *http.Client
	config        GeminiConfig
	logger        zerolog.Logger
	questionCount int
}

// NewGemini builds a Gemini client. Missing fields fall back to defaults
// (gemini-2.5-flash, 60s timeout, 10 questions).
func NewGemini(cfg GeminiConfig, logger zerolog.Logger) *Gemini {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	count := cfg.QuestionCount
	if count <= 0 {
		count = DefaultQuestionCount
	}

	return &Gemini{
		httpClient:    &http.Client{Timeout: timeout},
		config:        cfg,
		logger:        logger.With().Str("component", "gemini").Logger(),
		questionCount: count,
	}
}

// GenerateQuiz sends the worksheet image to the model and validates the
// returned question set. Any shortfall (wrong count, missing options, index
// out of range) is reported as a generation failure.
func (g *Gemini) GenerateQuiz(ctx context.Context, image []byte, mimeType string) ([]quiz.Question, error) {
	if g.config.APIKey == "" {
		return nil, fmt.Errorf("gemini api key not configured")
	}
	if len(image) == 0 {
		return nil, fmt.Errorf("empty image")
	}

	payload := geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{
				{InlineData: &geminiInlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(image)}},
				{Text: fmt.Sprintf(promptTemplate, g.questionCount, g.questionCount)},
			},
		}},
		GenerationConfig: map[string]interface{}{
			"temperature":      0.5,
			"responseMimeType": "application/json",
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		strings.TrimSuffix(g.config.BaseURL, "/"), g.config.Model, g.config.APIKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gemini returned status %d", resp.StatusCode)
	}

	var gResp geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gResp); err != nil {
		return nil, fmt.Errorf("decode gemini payload: %w", err)
	}
	if len(gResp.Candidates) == 0 || len(gResp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini returned empty response")
	}

	raw := strings.TrimSpace(gResp.Candidates[0].Content.Parts[0].Text)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var items []generatedQuestion
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("parse gemini JSON: %w", err)
	}

	questions, err := g.normalize(items)
	if err != nil {
		return nil, err
	}

	g.logger.Info().
		Int("questions", len(questions)).
		Dur("took", time.Since(started)).
		Msg("quiz generated")
	return questions, nil
}

func (g *Gemini) normalize(items []generatedQuestion) ([]quiz.Question, error) {
	if len(items) != g.questionCount {
		return nil, fmt.Errorf("expected %d questions, got %d", g.questionCount, len(items))
	}

	questions := make([]quiz.Question, len(items))
	for i, item := range items {
		if len(item.Options) != quiz.OptionCount {
			return nil, fmt.Errorf("question %d: expected %d options, got %d", i, quiz.OptionCount, len(item.Options))
		}
		if item.CorrectIndex < 0 || item.CorrectIndex >= len(item.Options) {
			return nil, fmt.Errorf("question %d: correct index %d out of range", i, item.CorrectIndex)
		}
		if strings.TrimSpace(item.Text) == "" {
			return nil, fmt.Errorf("question %d: empty text", i)
		}
		questions[i] = quiz.Question{
			Text:         item.Text,
			Options:      item.Options,
			CorrectIndex: item.CorrectIndex,
			Explanation:  item.Explanation,
		}
	}
	return questions, nil
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig map[string]interface{} `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// generatedQuestion mirrors the schema the prompt asks for. An "id" field is
// tolerated but ignored: IDs are assigned by master position, not by the model.
type generatedQuestion struct {
	ID           int      `json:"id"`
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Explanation  string   `json:"explanation"`
}
