package session

import (
	"context"
	"fmt"

	"github.com/rbright/warden/internal/fsm"
	"github.com/rbright/warden/internal/ipc"
)

// Handle maps one IPC request onto a controller call.
func (c *Controller) Handle(_ context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CommandStatus:
		return c.respond("status", nil)
	case ipc.CommandListen:
		return c.respond("listening", c.StartListening())
	case ipc.CommandStop:
		if c.State() != fsm.StateListening {
			return c.respond("not listening", nil)
		}
		c.StopListening()
		return c.respond("listening stopped", nil)
	case ipc.CommandSpeak:
		return c.respond("speaking", c.Speak(req.Text))
	case ipc.CommandHush:
		if c.State() != fsm.StateSpeaking {
			return c.respond("not speaking", nil)
		}
		c.StopSpeaking()
		return c.respond("speaking stopped", nil)
	default:
		return ipc.Response{OK: false, State: string(c.State()), Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}
}

func (c *Controller) respond(message string, err error) ipc.Response {
	state := string(c.State())
	if err != nil {
		return ipc.Response{OK: false, State: state, Error: err.Error()}
	}
	return ipc.Response{OK: true, State: state, Message: message}
}
