// Package router applies recognized-command side effects.
package router

import (
	"context"
	"errors"
	"log/slog"

	"github.com/rbright/warden/internal/events"
	"github.com/rbright/warden/internal/intent"
	"github.com/rbright/warden/internal/session"
)

// Speaker voices acknowledgement text.
type Speaker interface {
	Speak(text string) error
}

var acknowledgements = map[intent.Intent]string{
	intent.Audit:   "Starting a security audit.",
	intent.Scan:    "Scanning for vulnerabilities.",
	intent.Explain: "Here is an explanation.",
	intent.Report:  "Generating the report.",
	intent.Stop:    "Stopped.",
	intent.Help:    "You can ask me to audit, scan, explain, or report.",
	intent.Unknown: "Sorry, I did not catch that.",
}

// Acknowledgement returns the spoken reply for cmd.
func Acknowledgement(cmd intent.Command) string {
	if text, ok := acknowledgements[cmd.Intent]; ok {
		return text
	}
	return acknowledgements[intent.Unknown]
}

// Router answers each recognized command with a spoken acknowledgement.
type Router struct {
	speaker Speaker
	logger  *slog.Logger
}

// New constructs a router that speaks through speaker.
func New(speaker Speaker, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Router{speaker: speaker, logger: logger}
}

// HandleEvent implements events.Handler.
func (r *Router) HandleEvent(e events.Event) {
	if e.Kind != events.KindCommandRecognized || e.Command == nil {
		return
	}

	text := Acknowledgement(*e.Command)
	if err := r.speaker.Speak(text); err != nil {
		level := slog.LevelError
		if errors.Is(err, session.ErrOperationRejected) {
			level = slog.LevelWarn
		}
		r.logger.Log(context.Background(), level, "acknowledgement failed",
			"intent", e.Command.Intent,
			"error", err.Error(),
		)
		return
	}
	r.logger.Debug("acknowledged command", "intent", e.Command.Intent)
}
