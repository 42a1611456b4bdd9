// Package session owns the kiosk's single teaching session: the master quiz,
// the current student's randomized instance, the leaderboard and the phase
// they are all in. One device, one active student, one machine — every
// transition is serialized and checks its phase precondition before mutating
// anything.
package session

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tranducminh/quizsnap/internal/generate"
	"github.com/tranducminh/quizsnap/internal/leaderboard"
	"github.com/tranducminh/quizsnap/internal/quiz"
	"github.com/tranducminh/quizsnap/internal/store"
)

// DefaultTeacherTestName labels attempts made through the teacher's test
// shortcut. Class and school stay empty.
const DefaultTeacherTestName = "Giáo viên"

// Snapshot is a read-only view of the machine handed to observers and the
// HTTP layer. Each field is only meaningful in the phases that carry it.
type Snapshot struct {
	Phase          Phase                `json:"phase"`
	HasQuiz        bool                 `json:"hasQuiz"`
	QuestionCount  int                  `json:"questionCount"`
	Student        quiz.StudentInfo     `json:"student"`
	Questions      []quiz.Question      `json:"questions,omitempty"`
	Answers        quiz.AnswerSet       `json:"answers,omitempty"`
	ElapsedSeconds int                  `json:"elapsedSeconds"`
	Result         *Result              `json:"result,omitempty"`
	Leaderboard    []leaderboard.Ranked `json:"leaderboard,omitempty"`
}

// Options tunes machine behavior; the zero value is production-ready.
type Options struct {
	// Rand is the shuffle source; nil uses a time-seeded default.
	Rand *rand.Rand
	// Clock supplies the current time; nil uses time.Now.
	Clock func() time.Time
	// SkipTeacherEntries keeps teacher test runs off the leaderboard. The
	// default records them exactly like a student attempt.
	SkipTeacherEntries bool
	// TeacherTestName overrides the placeholder name for test runs.
	TeacherTestName string
	// TickInterval controls the quiz timer tick; nil/zero means one second.
	TickInterval time.Duration
	// OnChange, when set, receives a snapshot after every transition and
	// timer tick.
	OnChange func(Snapshot)
}

// Machine is the session state machine.
type Machine struct {
	mu sync.Mutex

	phase           Phase
	master          quiz.Master
	instance        []quiz.Question
	student         quiz.StudentInfo
	answers         quiz.AnswerSet
	entries         []leaderboard.Entry
	currentResultID string
	result          *Result
	teacherRun      bool
	quizStartedAt   time.Time
	genSeq          uint64

	timerStop chan struct{}

	store  store.Store
	gen    generate.Generator
	rng    *rand.Rand
	clock  func() time.Time
	logger zerolog.Logger
	opts   Options
}

// New builds a machine and seeds it from the store. A persisted quiz brings
// its leaderboard back with it; a leaderboard without a quiz violates their
// shared lifetime and is dropped.
func New(ctx context.Context, st store.Store, gen generate.Generator, logger zerolog.Logger, opts Options) *Machine {
	rng := opts.Rand
	if rng == nil {
		rng = quiz.NewRand()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	if opts.TeacherTestName == "" {
		opts.TeacherTestName = DefaultTeacherTestName
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}

	m := &Machine{
		phase:  PhaseLanding,
		store:  st,
		gen:    gen,
		rng:    rng,
		clock:  clock,
		logger: logger.With().Str("component", "session").Logger(),
		opts:   opts,
	}

	if master, ok := st.LoadQuiz(ctx); ok && len(master) > 0 {
		m.master = master
		m.instance = master.Clone()
		if entries, ok := st.LoadBoard(ctx); ok {
			m.entries = entries
		} else {
			m.entries = []leaderboard.Entry{}
		}
		m.logger.Info().Int("questions", len(master)).Int("entries", len(m.entries)).
			Msg("restored session from store")
	} else if _, ok := st.LoadBoard(ctx); ok {
		if err := st.ClearBoard(ctx); err != nil {
			m.logger.Warn().Err(err).Msg("failed to drop orphaned leaderboard")
		}
	}

	return m
}

// Close stops the quiz timer if one is running.
func (m *Machine) Close() {
	m.mu.Lock()
	m.stopTimerLocked()
	m.mu.Unlock()
}

// Phase returns the active phase.
func (m *Machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Snapshot returns the current view of the session.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Leaderboard returns the ranked view, tagging the row of the most recent
// submission.
func (m *Machine) Leaderboard() []leaderboard.Ranked {
	m.mu.Lock()
	defer m.mu.Unlock()
	return leaderboard.Rank(m.entries, m.currentResultID)
}

// SelectTeacher moves from the landing screen to the teacher login.
func (m *Machine) SelectTeacher() error {
	m.mu.Lock()
	if m.phase != PhaseLanding {
		m.mu.Unlock()
		return ErrInvalidTransition
	}
	m.phase = PhaseTeacherLogin
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(snap)
	return nil
}

// SelectStudent moves from the landing screen to the student entry form.
// Without an active quiz there is nothing to take, so the action is refused
// and the phase stays put.
func (m *Machine) SelectStudent() error {
	m.mu.Lock()
	if m.phase != PhaseLanding {
		m.mu.Unlock()
		return ErrInvalidTransition
	}
	if len(m.master) == 0 {
		m.mu.Unlock()
		return ErrNoActiveQuiz
	}
	m.phase = PhaseWaitingForStudent
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(snap)
	return nil
}

// Login checks the shared teacher secret via the supplied check function.
// On success the machine moves to the upload dashboard; on failure it stays
// on the login screen (the caller clears the password field).
func (m *Machine) Login(password string, check func(string) error) error {
	m.mu.Lock()
	if m.phase != PhaseTeacherLogin {
		m.mu.Unlock()
		return ErrInvalidTransition
	}
	if err := check(password); err != nil {
		m.mu.Unlock()
		return err
	}
	m.phase = PhaseIdle
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(snap)
	return nil
}

// Analyze converts a worksheet image into the new master quiz. The machine
// sits in Analyzing for the duration of the call; if the session moved on
// before the result lands (a stray late callback), the result is discarded.
// A failed generation returns to Idle without touching an existing quiz.
func (m *Machine) Analyze(ctx context.Context, image []byte, mimeType string) error {
	m.mu.Lock()
	if m.phase != PhaseIdle {
		m.mu.Unlock()
		return ErrInvalidTransition
	}
	m.phase = PhaseAnalyzing
	m.genSeq++
	seq := m.genSeq
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.notify(snap)

	questions, genErr := m.gen.GenerateQuiz(ctx, image, mimeType)

	var master quiz.Master
	if genErr == nil {
		master, genErr = quiz.NewMaster(questions)
	}

	m.mu.Lock()
	if m.phase != PhaseAnalyzing || m.genSeq != seq {
		m.mu.Unlock()
		m.logger.Warn().Msg("discarding stale generation result")
		return ErrStaleAnalysis
	}

	if genErr != nil {
		m.phase = PhaseIdle
		snap = m.snapshotLocked()
		m.mu.Unlock()

		m.notify(snap)
		m.logger.Error().Err(genErr).Msg("quiz generation failed")
		return fmt.Errorf("generate quiz: %w", genErr)
	}

	m.master = master
	m.entries = []leaderboard.Entry{}
	m.instance = master.Clone()
	m.currentResultID = ""
	m.result = nil
	m.phase = PhaseWaitingForStudent
	m.persistLocked(ctx)
	snap = m.snapshotLocked()
	m.mu.Unlock()

	m.notify(snap)
	m.logger.Info().Int("questions", len(master)).Msg("new master quiz ready")
	return nil
}

// TeacherTest lets the teacher run through the freshly generated quiz from
// the upload dashboard. The attempt is scored and, unless configured
// otherwise, recorded exactly like a student's.
func (m *Machine) TeacherTest() error {
	m.mu.Lock()
	if m.phase != PhaseIdle {
		m.mu.Unlock()
		return ErrInvalidTransition
	}
	if len(m.master) == 0 {
		m.mu.Unlock()
		return ErrNoActiveQuiz
	}
	m.student = quiz.StudentInfo{Name: m.opts.TeacherTestName}
	m.teacherRun = true
	snap := m.beginAttemptLocked()
	m.mu.Unlock()

	m.notify(snap)
	return nil
}

// StartQuiz begins an attempt for the student who just entered their info.
func (m *Machine) StartQuiz(info quiz.StudentInfo) error {
	m.mu.Lock()
	if m.phase != PhaseWaitingForStudent {
		m.mu.Unlock()
		return ErrInvalidTransition
	}
	if info.Name == "" {
		m.mu.Unlock()
		return ErrEmptyName
	}
	if len(m.master) == 0 {
		m.mu.Unlock()
		return ErrNoActiveQuiz
	}
	m.student = info
	m.teacherRun = false
	snap := m.beginAttemptLocked()
	m.mu.Unlock()

	m.notify(snap)
	return nil
}

// beginAttemptLocked derives a fresh instance from the master (never from a
// prior instance) and starts the timer.
func (m *Machine) beginAttemptLocked() Snapshot {
	m.instance = quiz.Randomize(m.master, m.rng)
	m.answers = quiz.AnswerSet{}
	m.result = nil
	m.quizStartedAt = m.clock()
	m.phase = PhaseQuiz
	m.startTimerLocked()
	return m.snapshotLocked()
}

// SetAnswer records one choice while the quiz is running.
func (m *Machine) SetAnswer(questionID, optionIndex int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhaseQuiz {
		return ErrInvalidTransition
	}
	found := false
	for _, q := range m.instance {
		if q.ID == questionID {
			found = true
			break
		}
	}
	if !found {
		return ErrUnknownQuestion
	}
	if optionIndex < 0 || optionIndex >= quiz.OptionCount {
		return ErrInvalidOption
	}
	m.answers[questionID] = optionIndex
	return nil
}

// Submit finishes the attempt: the answers (the full set if given, otherwise
// whatever was collected incrementally) are scored against the instance, a
// leaderboard entry is appended and the machine shows the results.
func (m *Machine) Submit(ctx context.Context, answers quiz.AnswerSet) (Result, error) {
	m.mu.Lock()
	if m.phase != PhaseQuiz {
		m.mu.Unlock()
		return Result{}, ErrInvalidTransition
	}

	if answers != nil {
		m.answers = quiz.AnswerSet{}
		for id, idx := range answers {
			m.answers[id] = idx
		}
	}

	now := m.clock()
	elapsed := int(now.Sub(m.quizStartedAt).Seconds())
	score := quiz.Score(m.instance, m.answers)
	entryID := leaderboard.NewEntryID(now)
	recorded := !(m.teacherRun && m.opts.SkipTeacherEntries)

	if recorded {
		m.entries = append(m.entries, leaderboard.Entry{
			ID:          entryID,
			Name:        m.student.Name,
			Score:       score,
			TimeSeconds: elapsed,
		})
		m.persistBoardLocked(ctx)
	}

	result := Result{
		Score:       score,
		Total:       len(m.instance),
		TimeSeconds: elapsed,
		EntryID:     entryID,
		Recorded:    recorded,
	}
	m.result = &result
	m.currentResultID = entryID
	m.stopTimerLocked()
	m.phase = PhaseResults
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(snap)
	m.logger.Info().Str("entry_id", entryID).Int("score", score).Int("seconds", elapsed).
		Bool("recorded", recorded).Msg("attempt submitted")
	return result, nil
}

// NextStudent hands the device to the next student: the leaderboard and the
// master quiz stay, everything about the previous student is cleared.
func (m *Machine) NextStudent() error {
	m.mu.Lock()
	if m.phase != PhaseResults {
		m.mu.Unlock()
		return ErrInvalidTransition
	}
	m.clearAttemptLocked()
	m.phase = PhaseWaitingForStudent
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(snap)
	return nil
}

// NewQuiz destroys the master quiz and its leaderboard together and returns
// to the upload dashboard. Irreversible, hence the explicit confirmation.
// Teacher authorization is enforced by the transport layer.
func (m *Machine) NewQuiz(ctx context.Context, confirm bool) error {
	if !confirm {
		return ErrConfirmationRequired
	}

	m.mu.Lock()
	m.stopTimerLocked()
	m.master = nil
	m.entries = nil
	m.instance = nil
	m.clearAttemptLocked()
	if err := m.store.ClearQuiz(ctx); err != nil {
		m.logger.Warn().Err(err).Msg("failed to clear persisted quiz")
	}
	if err := m.store.ClearBoard(ctx); err != nil {
		m.logger.Warn().Err(err).Msg("failed to clear persisted leaderboard")
	}
	m.phase = PhaseIdle
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(snap)
	m.logger.Info().Msg("session reset for a new quiz")
	return nil
}

// Exit returns to the landing screen, clearing only the current student's
// in-progress state. The master quiz and the leaderboard survive so other
// students can continue without the teacher logging in again. From the quiz
// phase this abandons the attempt without recording an entry.
func (m *Machine) Exit() error {
	m.mu.Lock()
	m.stopTimerLocked()
	m.instance = nil
	if len(m.master) > 0 {
		m.instance = m.master.Clone()
	}
	m.clearAttemptLocked()
	m.phase = PhaseLanding
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(snap)
	return nil
}

func (m *Machine) clearAttemptLocked() {
	m.student = quiz.StudentInfo{}
	m.answers = nil
	m.result = nil
	m.currentResultID = ""
	m.teacherRun = false
	m.quizStartedAt = time.Time{}
}

func (m *Machine) persistLocked(ctx context.Context) {
	m.persistQuizLocked(ctx)
	m.persistBoardLocked(ctx)
}

func (m *Machine) persistQuizLocked(ctx context.Context) {
	if err := m.store.SaveQuiz(ctx, m.master); err != nil {
		m.logger.Warn().Err(err).Msg("failed to persist quiz")
	}
}

func (m *Machine) persistBoardLocked(ctx context.Context) {
	if err := m.store.SaveBoard(ctx, m.entries); err != nil {
		m.logger.Warn().Err(err).Msg("failed to persist leaderboard")
	}
}

func (m *Machine) snapshotLocked() Snapshot {
	snap := Snapshot{
		Phase:         m.phase,
		HasQuiz:       len(m.master) > 0,
		QuestionCount: len(m.master),
		Student:       m.student,
	}

	switch m.phase {
	case PhaseQuiz:
		snap.Questions = cloneInstance(m.instance)
		snap.Answers = cloneAnswers(m.answers)
		snap.ElapsedSeconds = m.elapsedLocked()
	case PhaseResults:
		snap.Questions = cloneInstance(m.instance)
		snap.Answers = cloneAnswers(m.answers)
		if m.result != nil {
			r := *m.result
			snap.Result = &r
			snap.ElapsedSeconds = r.TimeSeconds
		}
		snap.Leaderboard = leaderboard.Rank(m.entries, m.currentResultID)
	case PhaseWaitingForStudent:
		snap.Leaderboard = leaderboard.Rank(m.entries, "")
	}
	return snap
}

func (m *Machine) elapsedLocked() int {
	if m.quizStartedAt.IsZero() {
		return 0
	}
	return int(m.clock().Sub(m.quizStartedAt).Seconds())
}

func (m *Machine) notify(snap Snapshot) {
	if m.opts.OnChange != nil {
		m.opts.OnChange(snap)
	}
}

// startTimerLocked runs the tick loop that keeps observers updated with the
// elapsed time while a quiz is in progress.
func (m *Machine) startTimerLocked() {
	m.stopTimerLocked()
	if m.opts.OnChange == nil {
		return
	}
	stop := make(chan struct{})
	m.timerStop = stop

	go func() {
		ticker := time.NewTicker(m.opts.TickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				m.mu.Lock()
				if m.phase != PhaseQuiz {
					m.mu.Unlock()
					return
				}
				snap := m.snapshotLocked()
				m.mu.Unlock()
				m.notify(snap)
			}
		}
	}()
}

func (m *Machine) stopTimerLocked() {
	if m.timerStop != nil {
		close(m.timerStop)
		m.timerStop = nil
	}
}

func cloneInstance(qs []quiz.Question) []quiz.Question {
	if qs == nil {
		return nil
	}
	out := make([]quiz.Question, len(qs))
	for i, q := range qs {
		q.Options = append([]string(nil), q.Options...)
		out[i] = q
	}
	return out
}

func cloneAnswers(answers quiz.AnswerSet) quiz.AnswerSet {
	if answers == nil {
		return nil
	}
	out := make(quiz.AnswerSet, len(answers))
	for id, idx := range answers {
		out[id] = idx
	}
	return out
}
