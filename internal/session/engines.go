package session

import (
	"errors"
	"fmt"

	"github.com/rbright/warden/internal/speech"
	"github.com/rbright/warden/internal/synthesis"
	"github.com/rbright/warden/internal/vad"
)

var (
	// ErrOperationRejected marks calls that were refused and had no effect.
	ErrOperationRejected = errors.New("operation rejected")
	// ErrNotInitialized indicates a call arrived before Initialize succeeded.
	ErrNotInitialized = fmt.Errorf("%w: voice pipeline not initialized", ErrOperationRejected)
	// ErrAlreadyListening indicates a listening session is already active.
	ErrAlreadyListening = fmt.Errorf("%w: already listening", ErrOperationRejected)
	// ErrEmptyUtterance indicates Speak was called without text.
	ErrEmptyUtterance = fmt.Errorf("%w: nothing to speak", ErrOperationRejected)
	// ErrUnrecognizedCommand describes a final transcript with no keyword match.
	ErrUnrecognizedCommand = errors.New("unrecognized command")
)

// InitializationError reports which engine failed to become ready.
type InitializationError struct {
	Stage string
	Err   error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("initialize %s engine: %v", e.Stage, e.Err)
}

func (e *InitializationError) Unwrap() error {
	return e.Err
}

// IsRejected reports whether err is a refused, side-effect free operation.
func IsRejected(err error) bool {
	return errors.Is(err, ErrOperationRejected)
}

// Recognizer is the speech-to-text engine contract used by the controller.
type Recognizer interface {
	Initialize() error
	StartListening(sessionID string, onResult func(speech.Result)) error
	StopListening(sessionID string)
	Destroy()
}

// Synthesizer is the text-to-speech engine contract used by the controller.
type Synthesizer interface {
	Initialize() error
	Speak(id, text string, onStatus func(synthesis.Status)) error
	Stop()
	Destroy()
}

// Detector is the voice activity detector contract used by the controller.
type Detector interface {
	Initialize() error
	Start(sessionID string, onActivity func(vad.Activity)) error
	Stop(sessionID string)
	Destroy()
}
