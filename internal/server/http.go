// Package server exposes the session machine to the kiosk UI over localhost
// HTTP. It owns no state of its own: every endpoint maps one UI action onto
// one machine transition, and the websocket push mirrors whatever the
// machine publishes.
package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/tranducminh/quizsnap/internal/auth"
	"github.com/tranducminh/quizsnap/internal/config"
	"github.com/tranducminh/quizsnap/internal/session"
	ws "github.com/tranducminh/quizsnap/pkg/http/ws"
)

// WSUpgrader handles WebSocket upgrades. The kiosk serves its own UI from
// the same origin, so no cross-origin screens are expected.
var WSUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// MaxImageBytes caps worksheet uploads at 10 MiB.
const MaxImageBytes = 10 << 20

// Handler bundles the dependencies of the HTTP surface.
type Handler struct {
	machine *session.Machine
	gate    *auth.Gate
	hub     *ws.Hub
	logger  zerolog.Logger
	clock   func() time.Time
}

// NewHandler builds the HTTP handler set.
func NewHandler(machine *session.Machine, gate *auth.Gate, hub *ws.Hub, logger zerolog.Logger) *Handler {
	return &Handler{
		machine: machine,
		gate:    gate,
		hub:     hub,
		logger:  logger.With().Str("component", "http").Logger(),
		clock:   time.Now,
	}
}

// NewHTTPServer wires all kiosk routes plus health and metrics.
func NewHTTPServer(cfg *config.App, h *Handler) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/v1/session", h.HandleSnapshot)
	mux.HandleFunc("/v1/session/role", h.HandleRole)
	mux.HandleFunc("/v1/session/login", h.HandleLogin)
	mux.HandleFunc("/v1/session/next", h.HandleNextStudent)
	mux.HandleFunc("/v1/session/reset", h.HandleNewQuiz)
	mux.HandleFunc("/v1/session/exit", h.HandleExit)

	mux.HandleFunc("/v1/quiz/analyze", h.HandleAnalyze)
	mux.HandleFunc("/v1/quiz/test", h.HandleTeacherTest)
	mux.HandleFunc("/v1/quiz/start", h.HandleStart)
	mux.HandleFunc("/v1/quiz/answer", h.HandleAnswer)
	mux.HandleFunc("/v1/quiz/submit", h.HandleSubmit)

	mux.HandleFunc("/v1/leaderboard", h.HandleLeaderboard)
	mux.HandleFunc("/ws", h.HandleWebSocket)

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}
}

// HandleWebSocket upgrades a screen connection and streams state pushes.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := WSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	wsConn := ws.NewConnection(conn, h.logger)
	id := h.hub.Register(wsConn)
	go wsConn.WritePump()

	// Seed the new screen with the current state before any transition fires.
	if msg, err := stateMessage(h.machine.Snapshot()); err == nil {
		_ = wsConn.Send(msg)
	}

	wsConn.ReadPump()
	h.hub.Unregister(id)
}
