// Package synthesis simulates a text-to-speech engine whose utterances last a
// duration proportional to their word count.
package synthesis

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rbright/warden/internal/clock"
	"github.com/rbright/warden/internal/random"
)

const (
	wordsPerMinute = 150
	minDuration    = 1000 * time.Millisecond
	maxDuration    = 5000 * time.Millisecond
)

var (
	// ErrNotReady indicates the engine has not been initialized or was destroyed.
	ErrNotReady = errors.New("synthesis engine not ready")
	// ErrSynthesisFailed is the synthetic failure produced by failure injection.
	ErrSynthesisFailed = errors.New("speech synthesis failed")
)

// Config controls the simulated voice.
type Config struct {
	Voice       string
	Speed       float64
	Pitch       float64
	FailureRate float64
}

// DefaultConfig returns the voice settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{Voice: "default", Speed: 1.0, Pitch: 1.0}
}

// Phase is the lifecycle stage reported for one utterance.
type Phase string

const (
	PhaseStarted  Phase = "started"
	PhaseFinished Phase = "finished"
)

// Status reports utterance progress.
type Status struct {
	UtteranceID string
	Phase       Phase
	Text        string
	Duration    time.Duration
	// Interrupted is set on a finished status caused by Stop or a newer Speak.
	Interrupted bool
}

// Duration returns the simulated speaking time for text.
func Duration(text string) time.Duration {
	words := len(strings.Fields(text))
	d := time.Duration(words) * time.Minute / wordsPerMinute
	if d < minDuration {
		return minDuration
	}
	if d > maxDuration {
		return maxDuration
	}
	return d
}

// Engine is the simulated synthesizer. It never queues: a new utterance replaces
// the current one.
type Engine struct {
	clock  clock.Clock
	source random.Source

	mu      sync.Mutex
	cfg     Config
	ready   bool
	current *utterance
}

type utterance struct {
	id       string
	text     string
	duration time.Duration
	timer    clock.Timer
	onStatus func(Status)
}

// New constructs an uninitialized engine.
func New(cfg Config, clk clock.Clock, source random.Source) *Engine {
	if clk == nil {
		clk = clock.Real()
	}
	if source == nil {
		source = random.New()
	}
	return &Engine{clock: clk, source: source, cfg: cfg}
}

// Initialize validates configuration and marks the engine ready.
func (e *Engine) Initialize() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ready {
		return nil
	}
	if strings.TrimSpace(e.cfg.Voice) == "" {
		return errors.New("synthesis voice must not be empty")
	}
	if e.cfg.Speed <= 0 {
		return fmt.Errorf("synthesis speed must be > 0, got %v", e.cfg.Speed)
	}
	if e.cfg.Pitch <= 0 {
		return fmt.Errorf("synthesis pitch must be > 0, got %v", e.cfg.Pitch)
	}
	if e.cfg.FailureRate < 0 || e.cfg.FailureRate > 1 {
		return fmt.Errorf("synthesis failure rate must be within [0,1], got %v", e.cfg.FailureRate)
	}
	e.ready = true
	return nil
}

// Speak starts an utterance. A started status is delivered before Speak returns;
// the finished status follows when the simulated duration elapses or the
// utterance is stopped.
func (e *Engine) Speak(id, text string, onStatus func(Status)) error {
	e.mu.Lock()
	if !e.ready {
		e.mu.Unlock()
		return ErrNotReady
	}

	interrupted, hadCurrent := e.takeCurrentLocked()

	if e.cfg.FailureRate > 0 && e.source.Float64() < e.cfg.FailureRate {
		e.mu.Unlock()
		if hadCurrent {
			interrupted.notify()
		}
		return ErrSynthesisFailed
	}

	u := &utterance{id: id, text: text, duration: Duration(text), onStatus: onStatus}
	u.timer = e.clock.AfterFunc(u.duration, func() { e.finish(u) })
	e.current = u
	e.mu.Unlock()

	if hadCurrent {
		interrupted.notify()
	}
	if onStatus != nil {
		onStatus(Status{UtteranceID: id, Phase: PhaseStarted, Text: text, Duration: u.duration})
	}
	return nil
}

// Stop ends the current utterance early. It is a no-op when idle.
func (e *Engine) Stop() {
	e.mu.Lock()
	interrupted, ok := e.takeCurrentLocked()
	e.mu.Unlock()

	if ok {
		interrupted.notify()
	}
}

// Destroy stops any utterance and returns the engine to the uninitialized state.
func (e *Engine) Destroy() {
	e.mu.Lock()
	interrupted, ok := e.takeCurrentLocked()
	e.ready = false
	e.mu.Unlock()

	if ok {
		interrupted.notify()
	}
}

// Ready reports whether Initialize succeeded and Destroy has not been called.
func (e *Engine) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ready
}

// Speaking reports whether an utterance is in flight.
func (e *Engine) Speaking() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current != nil
}

// Config returns the voice settings.
func (e *Engine) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

type finishedStatus struct {
	u      *utterance
	status Status
}

func (f finishedStatus) notify() {
	if f.u.onStatus != nil {
		f.u.onStatus(f.status)
	}
}

func (e *Engine) takeCurrentLocked() (finishedStatus, bool) {
	u := e.current
	if u == nil {
		return finishedStatus{}, false
	}
	u.timer.Stop()
	e.current = nil
	return finishedStatus{u: u, status: Status{
		UtteranceID: u.id,
		Phase:       PhaseFinished,
		Text:        u.text,
		Duration:    u.duration,
		Interrupted: true,
	}}, true
}

func (e *Engine) finish(u *utterance) {
	e.mu.Lock()
	if e.current != u {
		e.mu.Unlock()
		return
	}
	e.current = nil
	e.mu.Unlock()

	if u.onStatus != nil {
		u.onStatus(Status{UtteranceID: u.id, Phase: PhaseFinished, Text: u.text, Duration: u.duration})
	}
}
