// Package session coordinates the voice pipeline: engine lifecycle, state
// transitions, command parsing, and event publication.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rbright/warden/internal/clock"
	"github.com/rbright/warden/internal/events"
	"github.com/rbright/warden/internal/fsm"
	"github.com/rbright/warden/internal/intent"
	"github.com/rbright/warden/internal/speech"
	"github.com/rbright/warden/internal/synthesis"
	"github.com/rbright/warden/internal/vad"
)

// SettleDelay is how long a recognized command stays in processing before the
// pipeline returns to idle on its own.
const SettleDelay = 500 * time.Millisecond

// Options configures controller behavior that is not owned by an engine.
type Options struct {
	// MaxRecording bounds one listening session.
	MaxRecording time.Duration
	// DetectorEnabled starts the activity detector alongside each session.
	DetectorEnabled bool
}

// DefaultOptions returns the controller defaults.
func DefaultOptions() Options {
	return Options{MaxRecording: 30 * time.Second, DetectorEnabled: true}
}

// Status is a point-in-time snapshot of the controller.
type Status struct {
	State          fsm.State
	Ready          bool
	SessionID      string
	UtteranceID    string
	DetectorActive bool
	LastTranscript string
	LastCommand    *intent.Command
	LastError      string
}

// Controller owns the three engines and is the only writer of pipeline state.
type Controller struct {
	logger   *slog.Logger
	clock    clock.Clock
	speech   Recognizer
	synth    Synthesizer
	detector Detector
	opts     Options
	bus      *events.Bus
	newID    func() string

	mu             sync.Mutex
	state          fsm.State
	ready          bool
	sessionID      string
	utteranceID    string
	detectorActive bool
	lastConfidence float64
	maxTimer       clock.Timer
	settleTimer    clock.Timer
	settleGen      uint64
	lastTranscript string
	lastCommand    *intent.Command
	lastError      string

	pending  []events.Event
	flushing bool
}

// NewController constructs a controller with safe default fallbacks. detector may
// be nil, in which case activity detection is skipped.
func NewController(
	logger *slog.Logger,
	clk clock.Clock,
	recognizer Recognizer,
	synthesizer Synthesizer,
	detector Detector,
	opts Options,
) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if clk == nil {
		clk = clock.Real()
	}
	if opts.MaxRecording <= 0 {
		opts.MaxRecording = DefaultOptions().MaxRecording
	}
	if detector == nil {
		opts.DetectorEnabled = false
	}

	return &Controller{
		logger:   logger,
		clock:    clk,
		speech:   recognizer,
		synth:    synthesizer,
		detector: detector,
		opts:     opts,
		bus:      events.NewBus(logger),
		newID:    uuid.NewString,
		state:    fsm.StateIdle,
	}
}

// Subscribe registers an observer for state, transcript, command, and diagnostic events.
func (c *Controller) Subscribe(handler events.Handler) *events.Subscription {
	return c.bus.Subscribe(handler)
}

// State returns the current pipeline state.
func (c *Controller) State() fsm.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Status returns a snapshot of the controller.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := Status{
		State:          c.state,
		Ready:          c.ready,
		SessionID:      c.sessionID,
		UtteranceID:    c.utteranceID,
		DetectorActive: c.detectorActive,
		LastTranscript: c.lastTranscript,
		LastError:      c.lastError,
	}
	if c.lastCommand != nil {
		cmd := *c.lastCommand
		status.LastCommand = &cmd
	}
	return status
}

type initStep struct {
	stage   string
	init    func() error
	destroy func()
}

// Initialize brings every engine to ready and moves the pipeline to idle. On any
// failure the engines already started are torn down, the pipeline moves to error,
// and an *InitializationError is returned.
func (c *Controller) Initialize(ctx context.Context) error {
	c.mu.Lock()
	if c.ready {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	steps := []initStep{
		{stage: "speech", init: c.speech.Initialize, destroy: c.speech.Destroy},
		{stage: "synthesis", init: c.synth.Initialize, destroy: c.synth.Destroy},
	}
	if c.opts.DetectorEnabled {
		steps = append(steps, initStep{stage: "detector", init: c.detector.Initialize, destroy: c.detector.Destroy})
	}

	done := make([]initStep, 0, len(steps))
	for _, step := range steps {
		err := ctx.Err()
		if err == nil {
			err = step.init()
		}
		if err != nil {
			for i := len(done) - 1; i >= 0; i-- {
				done[i].destroy()
			}
			return c.failInitialize(&InitializationError{Stage: step.stage, Err: err})
		}
		done = append(done, step)
	}

	c.mu.Lock()
	c.ready = true
	c.lastError = ""
	_ = c.transitionLocked(fsm.EventReady)
	c.diagLocked(events.SeverityInfo, "voice pipeline ready",
		"detector", c.opts.DetectorEnabled,
		"max_recording_ms", c.opts.MaxRecording.Milliseconds(),
	)
	c.mu.Unlock()
	c.flush()
	return nil
}

func (c *Controller) failInitialize(err *InitializationError) error {
	c.mu.Lock()
	c.ready = false
	c.lastError = err.Error()
	_ = c.transitionLocked(fsm.EventFail)
	c.diagLocked(events.SeverityError, "voice pipeline initialization failed",
		"stage", err.Stage,
		"error", err.Err.Error(),
	)
	c.mu.Unlock()
	c.flush()
	return err
}

// StartListening opens one listening session. It is rejected while a session is
// already active; speech output in progress is stopped first.
func (c *Controller) StartListening() error {
	c.mu.Lock()
	if !c.ready {
		err := c.rejectLocked("start listening", ErrNotInitialized)
		c.mu.Unlock()
		c.flush()
		return err
	}
	if c.state == fsm.StateListening {
		err := c.rejectLocked("start listening", ErrAlreadyListening)
		c.mu.Unlock()
		c.flush()
		return err
	}

	wasSpeaking := c.state == fsm.StateSpeaking
	switch c.state {
	case fsm.StateSpeaking:
		c.utteranceID = ""
		_ = c.transitionLocked(fsm.EventSpoken)
	case fsm.StateProcessing:
		c.cancelSettleLocked()
		_ = c.transitionLocked(fsm.EventSettle)
	}

	if err := c.transitionLocked(fsm.EventListen); err != nil {
		err = c.rejectLocked("start listening", fmt.Errorf("%w: %v", ErrOperationRejected, err))
		c.mu.Unlock()
		c.flush()
		return err
	}

	sessionID := c.newID()
	c.sessionID = sessionID
	c.lastConfidence = 0
	c.detectorActive = c.opts.DetectorEnabled
	c.maxTimer = c.clock.AfterFunc(c.opts.MaxRecording, func() { c.onMaxRecording(sessionID) })
	c.diagLocked(events.SeverityInfo, "listening started", "session", sessionID)
	c.mu.Unlock()

	if wasSpeaking {
		c.synth.Stop()
	}

	if c.opts.DetectorEnabled {
		if err := c.detector.Start(sessionID, c.onActivity); err != nil {
			c.mu.Lock()
			if c.sessionID == sessionID {
				c.detectorActive = false
			}
			c.diagLocked(events.SeverityWarn, "activity detector unavailable", "error", err.Error())
			c.mu.Unlock()
		}
	}

	if err := c.speech.StartListening(sessionID, c.onResult); err != nil {
		c.mu.Lock()
		stopDetector := false
		if c.sessionID == sessionID {
			stopDetector = c.haltLocked()
			c.diagLocked(events.SeverityError, "speech recognition failed to start", "error", err.Error())
		}
		c.mu.Unlock()
		if stopDetector {
			c.detector.Stop(sessionID)
		}
		c.flush()
		return fmt.Errorf("start listening: %w", err)
	}

	c.flush()
	return nil
}

// StopListening ends the active session. It is a no-op outside listening.
func (c *Controller) StopListening() {
	c.mu.Lock()
	if !c.ready || c.state != fsm.StateListening {
		c.mu.Unlock()
		return
	}
	sessionID := c.sessionID
	c.mu.Unlock()

	c.stopEngines(sessionID)

	c.mu.Lock()
	if c.sessionID == sessionID && c.state == fsm.StateListening {
		c.haltLocked()
		c.diagLocked(events.SeverityInfo, "listening stopped", "session", sessionID)
	}
	c.mu.Unlock()
	c.flush()
}

// Speak voices text, interrupting any active listening session or utterance.
func (c *Controller) Speak(text string) error {
	c.mu.Lock()
	if !c.ready {
		err := c.rejectLocked("speak", ErrNotInitialized)
		c.mu.Unlock()
		c.flush()
		return err
	}
	if strings.TrimSpace(text) == "" {
		err := c.rejectLocked("speak", ErrEmptyUtterance)
		c.mu.Unlock()
		c.flush()
		return err
	}

	for c.state == fsm.StateListening {
		sessionID := c.sessionID
		c.mu.Unlock()
		c.stopEngines(sessionID)
		c.mu.Lock()
		if c.sessionID == sessionID && c.state == fsm.StateListening {
			c.closeSessionLocked()
			break
		}
	}
	if !c.ready {
		err := c.rejectLocked("speak", ErrNotInitialized)
		c.mu.Unlock()
		c.flush()
		return err
	}
	if c.state == fsm.StateProcessing {
		c.cancelSettleLocked()
	}

	if err := c.transitionLocked(fsm.EventSpeak); err != nil {
		err = c.rejectLocked("speak", fmt.Errorf("%w: %v", ErrOperationRejected, err))
		c.mu.Unlock()
		c.flush()
		return err
	}
	utteranceID := c.newID()
	c.utteranceID = utteranceID
	c.mu.Unlock()

	if err := c.synth.Speak(utteranceID, text, c.onSynthesis); err != nil {
		c.mu.Lock()
		if c.utteranceID == utteranceID {
			c.utteranceID = ""
			_ = c.transitionLocked(fsm.EventSpoken)
			c.diagLocked(events.SeverityError, "speech synthesis failed", "error", err.Error())
		}
		c.mu.Unlock()
		c.flush()
		return fmt.Errorf("speak: %w", err)
	}

	c.flush()
	return nil
}

// StopSpeaking cuts the current utterance short. It is a no-op outside speaking.
func (c *Controller) StopSpeaking() {
	c.mu.Lock()
	if !c.ready || c.state != fsm.StateSpeaking {
		c.mu.Unlock()
		return
	}
	utteranceID := c.utteranceID
	c.mu.Unlock()

	c.synth.Stop()

	c.mu.Lock()
	if c.state == fsm.StateSpeaking && c.utteranceID == utteranceID {
		c.utteranceID = ""
		_ = c.transitionLocked(fsm.EventSpoken)
	}
	c.mu.Unlock()
	c.flush()
}

// Destroy cancels all pending work and releases every engine. Initialize may be
// called again afterwards.
func (c *Controller) Destroy() {
	c.mu.Lock()
	if !c.ready {
		c.mu.Unlock()
		return
	}
	if c.maxTimer != nil {
		c.maxTimer.Stop()
		c.maxTimer = nil
	}
	c.cancelSettleLocked()
	c.sessionID = ""
	c.utteranceID = ""
	c.detectorActive = false

	switch c.state {
	case fsm.StateListening:
		_ = c.transitionLocked(fsm.EventHalt)
	case fsm.StateProcessing:
		_ = c.transitionLocked(fsm.EventSettle)
	case fsm.StateSpeaking:
		_ = c.transitionLocked(fsm.EventSpoken)
	}
	c.ready = false
	c.diagLocked(events.SeverityInfo, "voice pipeline destroyed")
	c.mu.Unlock()

	c.speech.Destroy()
	c.synth.Destroy()
	if c.opts.DetectorEnabled {
		c.detector.Destroy()
	}
	c.flush()
}

func (c *Controller) onResult(result speech.Result) {
	c.mu.Lock()
	if result.SessionID == "" || result.SessionID != c.sessionID || c.state != fsm.StateListening {
		c.mu.Unlock()
		return
	}

	if result.Confidence < c.lastConfidence {
		result.Confidence = c.lastConfidence
	}
	c.lastConfidence = result.Confidence
	c.lastTranscript = result.Text
	c.emitLocked(events.TranscriptReceived(c.clock.Now(), result))

	if !result.IsFinal {
		c.mu.Unlock()
		c.flush()
		return
	}

	sessionID := c.sessionID
	stopDetector := c.closeSessionLocked()
	_ = c.transitionLocked(fsm.EventTranscribed)

	cmd := intent.Parse(result.Text, result.Confidence)
	c.lastCommand = &cmd
	c.emitLocked(events.CommandRecognized(c.clock.Now(), cmd))
	if !cmd.Recognized() {
		c.diagLocked(events.SeverityWarn, ErrUnrecognizedCommand.Error(), "transcript", result.Text)
	} else {
		c.diagLocked(events.SeverityInfo, "command recognized",
			"intent", cmd.Intent,
			"keyword", cmd.MatchedKeyword,
			"confidence", cmd.Confidence,
		)
	}

	c.settleGen++
	gen := c.settleGen
	c.settleTimer = c.clock.AfterFunc(SettleDelay, func() { c.onSettle(gen) })
	c.mu.Unlock()

	if stopDetector {
		c.detector.Stop(sessionID)
	}
	c.flush()
}

func (c *Controller) onSettle(gen uint64) {
	c.mu.Lock()
	if gen != c.settleGen || c.state != fsm.StateProcessing {
		c.mu.Unlock()
		return
	}
	c.settleTimer = nil
	_ = c.transitionLocked(fsm.EventSettle)
	c.mu.Unlock()
	c.flush()
}

func (c *Controller) onMaxRecording(sessionID string) {
	c.mu.Lock()
	if sessionID != c.sessionID || c.state != fsm.StateListening {
		c.mu.Unlock()
		return
	}
	c.maxTimer = nil
	c.mu.Unlock()

	c.stopEngines(sessionID)

	c.mu.Lock()
	if sessionID == c.sessionID && c.state == fsm.StateListening {
		c.haltLocked()
		c.diagLocked(events.SeverityWarn, "maximum recording duration reached",
			"session", sessionID,
			"max_recording_ms", c.opts.MaxRecording.Milliseconds(),
		)
	}
	c.mu.Unlock()
	c.flush()
}

func (c *Controller) onSynthesis(status synthesis.Status) {
	c.mu.Lock()
	if status.UtteranceID == "" || status.UtteranceID != c.utteranceID {
		c.mu.Unlock()
		return
	}

	switch status.Phase {
	case synthesis.PhaseStarted:
		c.diagLocked(events.SeverityDebug, "speaking",
			"utterance", status.UtteranceID,
			"duration_ms", status.Duration.Milliseconds(),
		)
	case synthesis.PhaseFinished:
		c.utteranceID = ""
		_ = c.transitionLocked(fsm.EventSpoken)
		c.diagLocked(events.SeverityDebug, "speaking finished",
			"utterance", status.UtteranceID,
			"interrupted", status.Interrupted,
		)
	}
	c.mu.Unlock()
	c.flush()
}

func (c *Controller) onActivity(activity vad.Activity) {
	c.mu.Lock()
	if !c.ready {
		c.mu.Unlock()
		return
	}
	switch activity.Kind {
	case vad.SpeechStarted:
		c.diagLocked(events.SeverityDebug, "speech detected")
	case vad.SpeechEnded:
		c.diagLocked(events.SeverityDebug, "silence detected")
	}
	c.mu.Unlock()
	c.flush()
}

// stopEngines ends the recognizer and detector runs owned by sessionID. The
// session stays open in the controller until the caller closes it, so a new
// session cannot start while the stop is in flight.
func (c *Controller) stopEngines(sessionID string) {
	c.speech.StopListening(sessionID)
	if c.opts.DetectorEnabled {
		c.detector.Stop(sessionID)
	}
}

// closeSessionLocked forgets the listening session and reports whether the
// detector was running for it.
func (c *Controller) closeSessionLocked() bool {
	if c.maxTimer != nil {
		c.maxTimer.Stop()
		c.maxTimer = nil
	}
	c.sessionID = ""
	stopDetector := c.detectorActive
	c.detectorActive = false
	return stopDetector
}

// haltLocked closes the listening session and returns to idle.
func (c *Controller) haltLocked() bool {
	stopDetector := c.closeSessionLocked()
	_ = c.transitionLocked(fsm.EventHalt)
	return stopDetector
}

func (c *Controller) cancelSettleLocked() {
	c.settleGen++
	if c.settleTimer != nil {
		c.settleTimer.Stop()
		c.settleTimer = nil
	}
}

// transitionLocked applies one FSM event and queues a state_changed event when
// the state actually moves.
func (c *Controller) transitionLocked(event fsm.Event) error {
	next, err := fsm.Transition(c.state, event)
	if err != nil {
		return err
	}
	if next != c.state {
		c.emitLocked(events.StateChanged(c.clock.Now(), c.state, next))
	}
	c.state = next
	return nil
}

func (c *Controller) rejectLocked(op string, err error) error {
	c.diagLocked(events.SeverityWarn, op+" rejected", "state", c.state, "reason", err.Error())
	return fmt.Errorf("%s: %w", op, err)
}

// diagLocked mirrors a diagnostic to the structured log and queues it for observers.
func (c *Controller) diagLocked(severity events.Severity, message string, attrs ...any) {
	c.logger.Log(context.Background(), severity.Level(), message, attrs...)

	text := message
	if len(attrs) > 0 {
		text = message + " " + formatAttrs(attrs)
	}
	c.emitLocked(events.Diagnosed(c.clock.Now(), severity, text))
}

func (c *Controller) emitLocked(e events.Event) {
	c.pending = append(c.pending, e)
}

// flush publishes queued events in order. Only one goroutine publishes at a time;
// events queued by re-entrant calls from subscribers are picked up by the active
// flusher.
func (c *Controller) flush() {
	c.mu.Lock()
	if c.flushing {
		c.mu.Unlock()
		return
	}
	c.flushing = true
	for {
		batch := c.pending
		c.pending = nil
		if len(batch) == 0 {
			c.flushing = false
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()

		for _, e := range batch {
			c.bus.Publish(e)
		}

		c.mu.Lock()
	}
}

func formatAttrs(attrs []any) string {
	var b strings.Builder
	for i := 0; i+1 < len(attrs); i += 2 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%v=%v", attrs[i], attrs[i+1])
	}
	return b.String()
}
