// Package speech simulates a streaming speech-to-text engine. Each listening session
// replays one phrase from a fixed set as interim results followed by a final result.
package speech

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rbright/warden/internal/clock"
	"github.com/rbright/warden/internal/random"
)

var (
	// ErrNotReady indicates the engine has not been initialized or was destroyed.
	ErrNotReady = errors.New("speech engine not ready")
	// ErrAlreadyListening indicates a session is already in flight.
	ErrAlreadyListening = errors.New("speech engine already listening")
	// ErrRecognitionFailed is the synthetic failure produced by failure injection.
	ErrRecognitionFailed = errors.New("speech recognition failed")
)

// DefaultPhrases is the fixed utterance set replayed by the simulator.
var DefaultPhrases = []string{
	"start a security audit of this repository",
	"scan for vulnerabilities in the code",
	"explain this finding",
	"generate a report",
	"what is the risk level",
	"stop listening",
	"help me with the commands",
}

// Config controls the simulated recognizer.
type Config struct {
	Model           string
	Language        string
	InterimInterval time.Duration
	FinalDelay      time.Duration
	FailureRate     float64
	Phrases         []string
}

// DefaultConfig returns the recognizer settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Model:           "whisper-tiny.en",
		Language:        "en-US",
		InterimInterval: 300 * time.Millisecond,
		FinalDelay:      2000 * time.Millisecond,
		Phrases:         DefaultPhrases,
	}
}

// Result is one transcript emitted during a listening session.
type Result struct {
	SessionID  string
	Text       string
	Confidence float64
	IsFinal    bool
	Timestamp  time.Time
	Language   string
}

// Engine is the simulated recognizer. It owns at most one pending timer.
type Engine struct {
	clock  clock.Clock
	source random.Source

	mu         sync.Mutex
	cfg        Config
	ready      bool
	listening  bool
	session    string
	timer      clock.Timer
	generation uint64
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
	if strings.TrimSpace(e.cfg.Model) == "" {
		return errors.New("speech model must not be empty")
	}
	if strings.TrimSpace(e.cfg.Language) == "" {
		return errors.New("speech language must not be empty")
	}
	if e.cfg.InterimInterval <= 0 {
		return fmt.Errorf("speech interim interval must be > 0, got %s", e.cfg.InterimInterval)
	}
	if e.cfg.FailureRate < 0 || e.cfg.FailureRate > 1 {
		return fmt.Errorf("speech failure rate must be within [0,1], got %v", e.cfg.FailureRate)
	}
	if len(e.cfg.Phrases) == 0 {
		e.cfg.Phrases = DefaultPhrases
	}

	e.ready = true
	return nil
}

// StartListening begins one simulated session. Results are delivered through
// onResult from the clock's callback goroutine.
func (e *Engine) StartListening(sessionID string, onResult func(Result)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.ready {
		return ErrNotReady
	}
	if e.listening {
		return ErrAlreadyListening
	}
	if e.cfg.FailureRate > 0 && e.source.Float64() < e.cfg.FailureRate {
		return ErrRecognitionFailed
	}

	phrase := e.cfg.Phrases[e.source.IntN(len(e.cfg.Phrases))]
	words := strings.Fields(phrase)
	if len(words) == 0 {
		words = []string{phrase}
	}

	e.generation++
	e.listening = true
	e.session = sessionID

	run := &run{
		engine:    e,
		gen:       e.generation,
		sessionID: sessionID,
		words:     words,
		onResult:  onResult,
		finalAt:   e.cfg.FinalDelay,
	}
	run.scheduleLocked()
	return nil
}

// StopListening cancels the pending result of sessionID and clears the listening
// flag. A stop naming any other session is ignored.
func (e *Engine) StopListening(sessionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.listening || e.session != sessionID {
		return
	}
	e.stopLocked()
}

// Destroy stops any session and returns the engine to the uninitialized state.
func (e *Engine) Destroy() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
	e.ready = false
}

// Ready reports whether Initialize succeeded and Destroy has not been called.
func (e *Engine) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ready
}

// Listening reports whether a session is in flight.
func (e *Engine) Listening() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.listening
}

func (e *Engine) stopLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.listening = false
	e.session = ""
	e.generation++
}

// interimConfidence rises linearly with the share of the phrase recognized.
func interimConfidence(k, n int) float64 {
	return 0.35 + 0.5*float64(k)/float64(n)
}

type run struct {
	engine    *Engine
	gen       uint64
	sessionID string
	words     []string
	onResult  func(Result)
	finalAt   time.Duration

	elapsed        time.Duration
	emitted        int
	lastConfidence float64
}

// scheduleLocked arms the next step. Interims tick every InterimInterval while one
// more word remains and the tick lands before finalAt; otherwise the final is armed
// for exactly finalAt.
func (r *run) scheduleLocked() {
	e := r.engine
	next := r.elapsed + e.cfg.InterimInterval
	if r.emitted >= len(r.words) || next >= r.finalAt {
		next = r.finalAt
	}
	delay := next - r.elapsed
	r.elapsed = next
	e.timer = e.clock.AfterFunc(delay, r.step)
}

func (r *run) step() {
	e := r.engine

	e.mu.Lock()
	if e.generation != r.gen || !e.listening {
		e.mu.Unlock()
		return
	}

	result := Result{
		SessionID: r.sessionID,
		Timestamp: e.clock.Now(),
		Language:  e.cfg.Language,
	}

	if r.elapsed < r.finalAt && r.emitted < len(r.words) {
		r.emitted++
		result.Text = strings.Join(r.words[:r.emitted], " ")
		result.Confidence = r.clamp(interimConfidence(r.emitted, len(r.words)))
		r.scheduleLocked()
	} else {
		result.Text = strings.Join(r.words, " ")
		result.Confidence = r.clamp(0.85 + 0.14*e.source.Float64())
		result.IsFinal = true
		e.timer = nil
		e.listening = false
		e.session = ""
	}
	e.mu.Unlock()

	if r.onResult != nil {
		r.onResult(result)
	}
}

// clamp keeps confidence within [0,1] and non-decreasing across one session.
func (r *run) clamp(confidence float64) float64 {
	if confidence < r.lastConfidence {
		confidence = r.lastConfidence
	}
	if confidence > 1 {
		confidence = 1
	}
	if confidence < 0 {
		confidence = 0
	}
	r.lastConfidence = confidence
	return confidence
}
