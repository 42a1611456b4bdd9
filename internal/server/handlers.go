package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tranducminh/quizsnap/internal/auth"
	"github.com/tranducminh/quizsnap/internal/quiz"
	"github.com/tranducminh/quizsnap/internal/session"
	httperr "github.com/tranducminh/quizsnap/pkg/http/errors"
	ws "github.com/tranducminh/quizsnap/pkg/http/ws"
)

// StateMessage wraps a snapshot for the websocket push. Quiz-phase pushes
// are tagged as ticks so screens can throttle re-renders.
func StateMessage(snap session.Snapshot) (ws.Message, error) {
	return stateMessage(snap)
}

func stateMessage(snap session.Snapshot) (ws.Message, error) {
	payload, err := json.Marshal(snap)
	if err != nil {
		return ws.Message{}, err
	}
	msgType := ws.TypeState
	if snap.Phase == session.PhaseQuiz && snap.ElapsedSeconds > 0 {
		msgType = ws.TypeTick
	}
	return ws.Message{Type: msgType, Payload: payload}, nil
}

// HandleSnapshot returns the current session view.
// Route: GET /v1/session
func (h *Handler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperr.RespondError(w, http.StatusMethodNotAllowed, httperr.ErrCodeInvalidRequest, "method not allowed")
		return
	}
	respondJSON(w, h.machine.Snapshot())
}

// HandleRole applies the landing-screen role choice.
// Route: POST /v1/session/role {"role":"teacher"|"student"}
func (h *Handler) HandleRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role string `json:"role"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	var err error
	switch req.Role {
	case "teacher":
		err = h.machine.SelectTeacher()
	case "student":
		err = h.machine.SelectStudent()
	default:
		httperr.RespondValidationError(w, httperr.ErrCodeValidationFailed, "role must be teacher or student", "role")
		return
	}
	if err != nil {
		h.respondSessionError(w, err)
		return
	}
	respondJSON(w, h.machine.Snapshot())
}

// HandleLogin checks the shared teacher secret and issues a kiosk token.
// Route: POST /v1/session/login {"password":"..."}
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.machine.Login(req.Password, h.gate.Check); err != nil {
		h.respondSessionError(w, err)
		return
	}

	token, err := h.gate.Issue(h.clock())
	if err != nil {
		h.logger.Error().Err(err).Msg("token issue failed")
		httperr.RespondInternalError(w, "could not issue teacher token")
		return
	}
	respondJSON(w, map[string]interface{}{
		"token":    token,
		"snapshot": h.machine.Snapshot(),
	})
}

// HandleAnalyze accepts a worksheet photo and generates the new quiz.
// Route: POST /v1/quiz/analyze, multipart field "image", teacher token.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !h.requireTeacher(w, r) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxImageBytes)
	file, header, err := r.FormFile("image")
	if err != nil {
		httperr.RespondValidationError(w, httperr.ErrCodeMissingField, "worksheet image is required", "image")
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		httperr.RespondBadRequest(w, httperr.ErrCodeInvalidRequest, "could not read image")
		return
	}
	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	started := time.Now()
	if err := h.machine.Analyze(r.Context(), image, mimeType); err != nil {
		generationsTotal.WithLabelValues("error").Inc()
		h.respondSessionError(w, err)
		return
	}
	generationsTotal.WithLabelValues("ok").Inc()
	generationDuration.Observe(time.Since(started).Seconds())
	respondJSON(w, h.machine.Snapshot())
}

// HandleTeacherTest starts the teacher's trial run of the fresh quiz.
// Route: POST /v1/quiz/test, teacher token.
func (h *Handler) HandleTeacherTest(w http.ResponseWriter, r *http.Request) {
	if !h.requireTeacher(w, r) {
		return
	}
	if err := h.machine.TeacherTest(); err != nil {
		h.respondSessionError(w, err)
		return
	}
	respondJSON(w, h.machine.Snapshot())
}

// HandleStart begins a student attempt.
// Route: POST /v1/quiz/start {"name":"...","className":"...","school":"..."}
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	var info quiz.StudentInfo
	if !decodeBody(w, r, &info) {
		return
	}
	if err := h.machine.StartQuiz(info); err != nil {
		h.respondSessionError(w, err)
		return
	}
	respondJSON(w, h.machine.Snapshot())
}

// HandleAnswer records one choice while the quiz runs.
// Route: POST /v1/quiz/answer {"questionId":3,"optionIndex":1}
func (h *Handler) HandleAnswer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QuestionID  int `json:"questionId"`
		OptionIndex int `json:"optionIndex"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.machine.SetAnswer(req.QuestionID, req.OptionIndex); err != nil {
		h.respondSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSubmit finishes the attempt and returns the scored result.
// Route: POST /v1/quiz/submit {"answers":{"0":1,...}} (answers optional)
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Answers quiz.AnswerSet `json:"answers"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.machine.Submit(r.Context(), req.Answers)
	if err != nil {
		h.respondSessionError(w, err)
		return
	}
	submissionsTotal.Inc()
	respondJSON(w, map[string]interface{}{
		"result":   result,
		"snapshot": h.machine.Snapshot(),
	})
}

// HandleNextStudent hands the device to the next student.
// Route: POST /v1/session/next
func (h *Handler) HandleNextStudent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperr.RespondError(w, http.StatusMethodNotAllowed, httperr.ErrCodeInvalidRequest, "method not allowed")
		return
	}
	if err := h.machine.NextStudent(); err != nil {
		h.respondSessionError(w, err)
		return
	}
	respondJSON(w, h.machine.Snapshot())
}

// HandleNewQuiz destroys the current quiz and leaderboard together.
// Route: POST /v1/session/reset {"confirm":true}, teacher token.
func (h *Handler) HandleNewQuiz(w http.ResponseWriter, r *http.Request) {
	if !h.requireTeacher(w, r) {
		return
	}
	var req struct {
		Confirm bool `json:"confirm"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.machine.NewQuiz(r.Context(), req.Confirm); err != nil {
		h.respondSessionError(w, err)
		return
	}
	respondJSON(w, h.machine.Snapshot())
}

// HandleExit returns to the landing screen.
// Route: POST /v1/session/exit
func (h *Handler) HandleExit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperr.RespondError(w, http.StatusMethodNotAllowed, httperr.ErrCodeInvalidRequest, "method not allowed")
		return
	}
	if err := h.machine.Exit(); err != nil {
		h.respondSessionError(w, err)
		return
	}
	respondJSON(w, h.machine.Snapshot())
}

// HandleLeaderboard returns the ranked board for the active quiz.
// Route: GET /v1/leaderboard
func (h *Handler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperr.RespondError(w, http.StatusMethodNotAllowed, httperr.ErrCodeInvalidRequest, "method not allowed")
		return
	}
	respondJSON(w, map[string]interface{}{
		"entries": h.machine.Leaderboard(),
	})
}

func (h *Handler) requireTeacher(w http.ResponseWriter, r *http.Request) bool {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if err := h.gate.Verify(token); err != nil {
		httperr.RespondUnauthorized(w, httperr.ErrCodeInvalidToken, "teacher authorization required")
		return false
	}
	return true
}

func (h *Handler) respondSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrWrongPassword):
		httperr.RespondUnauthorized(w, httperr.ErrCodeWrongPassword, "wrong password")
	case errors.Is(err, session.ErrNoActiveQuiz):
		httperr.RespondConflict(w, httperr.ErrCodeNoActiveQuiz, "no quiz has been created yet")
	case errors.Is(err, session.ErrEmptyName):
		httperr.RespondValidationError(w, httperr.ErrCodeEmptyStudentName, "student name must not be empty", "name")
	case errors.Is(err, session.ErrConfirmationRequired):
		httperr.RespondBadRequest(w, httperr.ErrCodeConfirmationRequired, "confirm must be true")
	case errors.Is(err, session.ErrUnknownQuestion):
		httperr.RespondBadRequest(w, httperr.ErrCodeUnknownQuestion, "unknown question id")
	case errors.Is(err, session.ErrInvalidOption):
		httperr.RespondBadRequest(w, httperr.ErrCodeInvalidOption, "option index out of range")
	case errors.Is(err, session.ErrInvalidTransition), errors.Is(err, session.ErrStaleAnalysis):
		httperr.RespondConflict(w, httperr.ErrCodeInvalidTransition, "action not valid in current phase")
	default:
		h.logger.Error().Err(err).Msg("quiz generation failed")
		httperr.RespondUpstreamError(w, httperr.ErrCodeGenerationFailed, "could not generate a quiz from the image, try a sharper photo")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Method != http.MethodPost {
		httperr.RespondError(w, http.StatusMethodNotAllowed, httperr.ErrCodeInvalidRequest, "method not allowed")
		return false
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httperr.RespondBadRequest(w, httperr.ErrCodeInvalidRequest, "invalid JSON payload")
		return false
	}
	return true
}

func respondJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
