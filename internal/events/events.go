// Package events carries coordinator notifications to any number of observers.
package events

import (
	"log/slog"
	"time"

	"github.com/rbright/warden/internal/fsm"
	"github.com/rbright/warden/internal/intent"
	"github.com/rbright/warden/internal/speech"
)

// Kind identifies the payload carried by an Event.
type Kind string

const (
	KindStateChanged      Kind = "state_changed"
	KindTranscript        Kind = "transcript_received"
	KindCommandRecognized Kind = "command_recognized"
	KindDiagnostic        Kind = "diagnostic"
)

// Severity grades diagnostic messages.
type Severity string

const (
	SeverityDebug Severity = "debug"
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// Level maps a severity onto slog levels.
func (s Severity) Level() slog.Level {
	switch s {
	case SeverityDebug:
		return slog.LevelDebug
	case SeverityWarn:
		return slog.LevelWarn
	case SeverityError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// StateChange records one pipeline transition.
type StateChange struct {
	From fsm.State
	To   fsm.State
}

// Diagnostic is a free-text log line surfaced to observers.
type Diagnostic struct {
	Severity Severity
	Message  string
}

// Event is a value snapshot; exactly one payload field is set, matching Kind.
type Event struct {
	Kind       Kind
	At         time.Time
	State      *StateChange
	Transcript *speech.Result
	Command    *intent.Command
	Diagnostic *Diagnostic
}

// StateChanged builds a state_changed event.
func StateChanged(at time.Time, from, to fsm.State) Event {
	return Event{Kind: KindStateChanged, At: at, State: &StateChange{From: from, To: to}}
}

// TranscriptReceived builds a transcript_received event.
func TranscriptReceived(at time.Time, result speech.Result) Event {
	return Event{Kind: KindTranscript, At: at, Transcript: &result}
}

// CommandRecognized builds a command_recognized event.
func CommandRecognized(at time.Time, cmd intent.Command) Event {
	return Event{Kind: KindCommandRecognized, At: at, Command: &cmd}
}

// Diagnosed builds a diagnostic event.
func Diagnosed(at time.Time, severity Severity, message string) Event {
	return Event{Kind: KindDiagnostic, At: at, Diagnostic: &Diagnostic{Severity: severity, Message: message}}
}
