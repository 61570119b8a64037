// Package vad simulates voice activity detection with a one-shot poll.
//
// The first poll tick after Start reports speech. Nothing reports the end of
// speech on its own: silence is signalled by TriggerSilence or by Stop. This
// mirrors a polling stub rather than a real detector, where start and end
// events would alternate with the audio.
package vad

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rbright/warden/internal/clock"
)

// ErrNotReady indicates the detector has not been initialized or was destroyed.
var ErrNotReady = errors.New("activity detector not ready")

// Config controls the simulated detector.
type Config struct {
	SilenceThreshold time.Duration
	PollInterval     time.Duration
}

// DefaultConfig returns the detector settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		SilenceThreshold: 1500 * time.Millisecond,
		PollInterval:     500 * time.Millisecond,
	}
}

// Kind identifies a speech activity transition.
type Kind string

const (
	SpeechStarted Kind = "speech_started"
	SpeechEnded   Kind = "speech_ended"
)

// Activity is one detected transition.
type Activity struct {
	Kind Kind
	At   time.Time
}

// Detector is the simulated VAD. It owns at most one pending poll timer.
type Detector struct {
	clock clock.Clock

	mu         sync.Mutex
	cfg        Config
	ready      bool
	active     bool
	session    string
	speech     bool
	timer      clock.Timer
	onActivity func(Activity)
	generation uint64
}

// New constructs an uninitialized detector.
func New(cfg Config, clk clock.Clock) *Detector {
	if clk == nil {
		clk = clock.Real()
	}
	return &Detector{clock: clk, cfg: cfg}
}

// Initialize validates configuration and marks the detector ready.
func (d *Detector) Initialize() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ready {
		return nil
	}
	if d.cfg.PollInterval <= 0 {
		return fmt.Errorf("detector poll interval must be > 0, got %s", d.cfg.PollInterval)
	}
	if d.cfg.SilenceThreshold <= 0 {
		return fmt.Errorf("detector silence threshold must be > 0, got %s", d.cfg.SilenceThreshold)
	}
	d.ready = true
	return nil
}

// Start arms the poll for session. Restarting an active detector cancels the
// previous poll first.
func (d *Detector) Start(session string, onActivity func(Activity)) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.ready {
		return ErrNotReady
	}
	d.cancelLocked()

	d.generation++
	gen := d.generation
	d.active = true
	d.session = session
	d.speech = false
	d.onActivity = onActivity
	d.timer = d.clock.AfterFunc(d.cfg.PollInterval, func() { d.tick(gen) })
	return nil
}

// TriggerSilence reports the end of speech when speech was detected.
func (d *Detector) TriggerSilence() {
	d.mu.Lock()
	notify := d.silenceLocked()
	d.mu.Unlock()
	notify()
}

// Stop cancels the poll started for session. Detected speech is closed with a
// SpeechEnded activity. A stop naming any other session is ignored.
func (d *Detector) Stop(session string) {
	d.mu.Lock()
	if d.session != session {
		d.mu.Unlock()
		return
	}
	notify := d.stopLocked()
	d.mu.Unlock()
	notify()
}

// Destroy stops the detector and returns it to the uninitialized state.
func (d *Detector) Destroy() {
	d.mu.Lock()
	notify := d.stopLocked()
	d.ready = false
	d.mu.Unlock()
	notify()
}

// Ready reports whether Initialize succeeded and Destroy has not been called.
func (d *Detector) Ready() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ready
}

// Active reports whether the detector is running.
func (d *Detector) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// SpeechDetected reports whether speech is currently considered present.
func (d *Detector) SpeechDetected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.speech
}

// Config returns the detector settings.
func (d *Detector) Config() Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

func (d *Detector) cancelLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.generation++
}

func (d *Detector) stopLocked() func() {
	notify := d.silenceLocked()
	d.cancelLocked()
	d.active = false
	d.session = ""
	d.onActivity = nil
	return notify
}

// silenceLocked clears detected speech and returns the SpeechEnded delivery to
// run once the lock is released.
func (d *Detector) silenceLocked() func() {
	if !d.speech {
		return func() {}
	}
	d.speech = false
	onActivity := d.onActivity
	at := d.clock.Now()
	return func() {
		if onActivity != nil {
			onActivity(Activity{Kind: SpeechEnded, At: at})
		}
	}
}

// tick is the single poll. It detects speech once and does not re-arm.
func (d *Detector) tick(gen uint64) {
	d.mu.Lock()
	if gen != d.generation || !d.active {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.speech = true
	notify := d.onActivity
	at := d.clock.Now()
	d.mu.Unlock()

	if notify != nil {
		notify(Activity{Kind: SpeechStarted, At: at})
	}
}
