package ipc

import (
	"errors"
	"fmt"
	"strings"
)

// Command names accepted by the owner process.
const (
	CommandStatus = "status"
	CommandListen = "listen"
	CommandStop   = "stop"
	CommandSpeak  = "speak"
	CommandHush   = "hush"
)

var knownCommands = map[string]struct{}{
	CommandStatus: {},
	CommandListen: {},
	CommandStop:   {},
	CommandSpeak:  {},
	CommandHush:   {},
}

// ErrInvalidRequest marks requests rejected before they reach the handler.
var ErrInvalidRequest = errors.New("invalid request")

// Request is one newline-terminated JSON line sent by a client.
type Request struct {
	Command string `json:"command"`
	Text    string `json:"text,omitempty"`
}

// Validate rejects unknown commands and speak requests without text.
func (r Request) Validate() error {
	if _, ok := knownCommands[r.Command]; !ok {
		return fmt.Errorf("%w: unknown command %q", ErrInvalidRequest, r.Command)
	}
	if r.Command == CommandSpeak && strings.TrimSpace(r.Text) == "" {
		return fmt.Errorf("%w: speak requires text", ErrInvalidRequest)
	}
	return nil
}

// Response is the owner's single reply line. State is always the pipeline state
// after the request was applied.
type Response struct {
	OK      bool   `json:"ok"`
	State   string `json:"state,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Failure builds an error response.
func Failure(err error) Response {
	return Response{OK: false, Error: err.Error()}
}
