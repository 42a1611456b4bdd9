package session

// Phase is the discrete state of the kiosk session. Exactly one phase is
// active at a time and phase transitions are the only way top-level state
// mutates.
type Phase string

const (
	// PhaseLanding is the role-selection screen shown on boot and after exit.
	PhaseLanding Phase = "landing"
	// PhaseTeacherLogin waits for the shared teacher secret.
	PhaseTeacherLogin Phase = "teacher_login"
	// PhaseIdle is the teacher's upload dashboard.
	PhaseIdle Phase = "idle"
	// PhaseAnalyzing is active while the worksheet image is being converted
	// into a quiz. No other phase-mutating action is accepted meanwhile.
	PhaseAnalyzing Phase = "analyzing"
	// PhaseWaitingForStudent collects the next student's info.
	PhaseWaitingForStudent Phase = "waiting_for_student"
	// PhaseQuiz is an attempt in progress, with the timer running.
	PhaseQuiz Phase = "quiz"
	// PhaseResults shows the score and ranked leaderboard after submission.
	PhaseResults Phase = "results"
)

// Result is the outcome of one submitted attempt, carried by the Results
// phase.
type Result struct {
	Score       int    `json:"score"`
	Total       int    `json:"total"`
	TimeSeconds int    `json:"timeSeconds"`
	EntryID     string `json:"entryId"`
	Recorded    bool   `json:"recorded"`
}
