// Package console renders controller events as single terminal lines.
package console

import (
	"fmt"
	"io"
	"sync"

	"github.com/rbright/warden/internal/events"
)

// Renderer writes one line per event. It is safe for concurrent use.
type Renderer struct {
	out      io.Writer
	verbose  bool
	messages messages

	mu sync.Mutex
}

// New constructs a renderer. Verbose output includes interim transcripts and
// debug diagnostics.
func New(out io.Writer, verbose bool) *Renderer {
	return &Renderer{out: out, verbose: verbose, messages: messagesFromEnv()}
}

// HandleEvent implements events.Handler.
func (r *Renderer) HandleEvent(e events.Event) {
	line, ok := r.Format(e)
	if !ok {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = fmt.Fprintln(r.out, line)
}

// Format renders e, reporting false when the event is filtered out.
func (r *Renderer) Format(e events.Event) (string, bool) {
	stamp := e.At.Local().Format("15:04:05.000")

	switch e.Kind {
	case events.KindStateChanged:
		return fmt.Sprintf("%s %-10s %s -> %s (%s)", stamp, "state", e.State.From, e.State.To, r.messages.state(e.State.To)), true
	case events.KindTranscript:
		phase := r.messages.final
		if !e.Transcript.IsFinal {
			if !r.verbose {
				return "", false
			}
			phase = r.messages.interim
		}
		return fmt.Sprintf("%s %-10s [%s %.2f] %s", stamp, "transcript", phase, e.Transcript.Confidence, e.Transcript.Text), true
	case events.KindCommandRecognized:
		keyword := e.Command.MatchedKeyword
		if keyword == "" {
			keyword = r.messages.noKeyword
		}
		return fmt.Sprintf("%s %-10s %s (%s, %.2f)", stamp, "command", e.Command.Intent, keyword, e.Command.Confidence), true
	case events.KindDiagnostic:
		if e.Diagnostic.Severity == events.SeverityDebug && !r.verbose {
			return "", false
		}
		return fmt.Sprintf("%s %-10s %s", stamp, e.Diagnostic.Severity, e.Diagnostic.Message), true
	default:
		return "", false
	}
}
