package console

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rbright/warden/internal/events"
	"github.com/rbright/warden/internal/fsm"
	"github.com/rbright/warden/internal/intent"
	"github.com/rbright/warden/internal/speech"
	"github.com/stretchr/testify/require"
)

var at = time.Date(2026, 3, 4, 5, 6, 7, 0, time.Local)

func newRenderer(out *bytes.Buffer, verbose bool) *Renderer {
	r := New(out, verbose)
	r.messages = messagesFor(localeEnglish)
	return r
}

func TestRendererWritesOneLinePerEvent(t *testing.T) {
	var out bytes.Buffer
	r := newRenderer(&out, false)

	r.HandleEvent(events.StateChanged(at, fsm.StateIdle, fsm.StateListening))
	r.HandleEvent(events.TranscriptReceived(at, speech.Result{Text: "scan the", Confidence: 0.6}))
	r.HandleEvent(events.TranscriptReceived(at, speech.Result{Text: "scan the code", Confidence: 0.92, IsFinal: true}))
	r.HandleEvent(events.CommandRecognized(at, intent.Parse("scan the code", 0.92)))
	r.HandleEvent(events.Diagnosed(at, events.SeverityDebug, "speech detected"))
	r.HandleEvent(events.Diagnosed(at, events.SeverityWarn, "unrecognized command"))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Equal(t, []string{
		"05:06:07.000 state      idle -> listening (Listening…)",
		"05:06:07.000 transcript [final 0.92] scan the code",
		"05:06:07.000 command    scan (scan, 0.92)",
		"05:06:07.000 warn       unrecognized command",
	}, lines)
}

func TestVerboseRendererIncludesInterimAndDebug(t *testing.T) {
	var out bytes.Buffer
	r := newRenderer(&out, true)

	r.HandleEvent(events.TranscriptReceived(at, speech.Result{Text: "scan", Confidence: 0.43}))
	r.HandleEvent(events.Diagnosed(at, events.SeverityDebug, "speech detected"))
	r.HandleEvent(events.CommandRecognized(at, intent.Parse("what's the weather", 0.9)))

	require.Contains(t, out.String(), "[interim 0.43] scan")
	require.Contains(t, out.String(), "debug      speech detected")
	require.Contains(t, out.String(), "unknown (no keyword, 0.90)")
}

func TestResolveLocale(t *testing.T) {
	require.Equal(t, localeEnglish, resolveLocale("en_US.UTF-8"))
	require.Equal(t, localeGerman, resolveLocale("de_DE.UTF-8"))
	require.Equal(t, localeEnglish, resolveLocale("fr_FR.UTF-8"))
	require.Equal(t, localeEnglish, resolveLocale(""))
}

func TestMessagesCoverEveryState(t *testing.T) {
	for _, tag := range []locale{localeEnglish, localeGerman} {
		msg := messagesFor(tag)
		for _, state := range []fsm.State{fsm.StateIdle, fsm.StateListening, fsm.StateProcessing, fsm.StateSpeaking, fsm.StateError} {
			require.NotEqual(t, msg.unknown, msg.state(state), "locale %s state %s", tag, state)
		}
		require.Equal(t, msg.unknown, msg.state("bogus"))
	}
}
