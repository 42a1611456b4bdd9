package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration for the kiosk.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"quizsnap"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"127.0.0.1:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"10s"`

	Teacher Teacher
	Gemini  Gemini
	Store   Store
	Session Session
}

// Teacher configures the shared-secret gate.
type Teacher struct {
	// Password is compared verbatim against the login form.
	Password string `env:"TEACHER_PASSWORD,notEmpty"`
	// TokenKey signs the kiosk session token issued after login.
	TokenKey string        `env:"TEACHER_TOKEN_KEY,notEmpty"`
	TokenTTL time.Duration `env:"TEACHER_TOKEN_TTL" envDefault:"8h"`
}

// Gemini configures the quiz-generation service.
type Gemini struct {
	APIKey        string        `env:"GEMINI_API_KEY"`
	Model         string        `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	HTTPTimeout   time.Duration `env:"GEMINI_HTTP_TIMEOUT" envDefault:"60s"`
	QuestionCount int           `env:"GEMINI_QUESTION_COUNT" envDefault:"10"`
}

// Store selects where the active quiz and leaderboard are persisted.
type Store struct {
	// Backend is one of: memory, redis, sqlite.
	Backend    string `env:"STORE_BACKEND" envDefault:"sqlite"`
	RedisAddr  string `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	RedisDB    int    `env:"REDIS_DB" envDefault:"0"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"quizsnap.db"`
	KeyPrefix  string `env:"STORE_KEY_PREFIX" envDefault:"quizsnap"`
}

// Session groups behavior knobs for the state machine.
type Session struct {
	// SkipTeacherEntries keeps the teacher's test runs off the leaderboard.
	SkipTeacherEntries bool   `env:"SKIP_TEACHER_ENTRIES" envDefault:"false"`
	TeacherTestName    string `env:"TEACHER_TEST_NAME" envDefault:"Giáo viên"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	switch cfg.Store.Backend {
	case "memory", "redis", "sqlite":
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	return cfg, nil
}
