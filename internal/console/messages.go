package console

import (
	"os"
	"strings"

	"github.com/rbright/warden/internal/fsm"
)

type locale string

const (
	localeEnglish locale = "en"
	localeGerman  locale = "de"
)

type messages struct {
	states    map[fsm.State]string
	unknown   string
	noKeyword string
	interim   string
	final     string
}

func messagesFromEnv() messages {
	return messagesFor(resolveLocale(os.Getenv("LANG")))
}

func resolveLocale(raw string) locale {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if strings.HasPrefix(raw, "de") {
		return localeGerman
	}
	return localeEnglish
}

func messagesFor(tag locale) messages {
	switch tag {
	case localeGerman:
		return messages{
			states: map[fsm.State]string{
				fsm.StateIdle:       "Bereit",
				fsm.StateListening:  "Höre zu…",
				fsm.StateProcessing: "Verarbeite…",
				fsm.StateSpeaking:   "Spreche…",
				fsm.StateError:      "Fehler",
			},
			unknown:   "Unbekannt",
			noKeyword: "kein Schlüsselwort",
			interim:   "vorläufig",
			final:     "final",
		}
	case localeEnglish:
		fallthrough
	default:
		return messages{
			states: map[fsm.State]string{
				fsm.StateIdle:       "Ready",
				fsm.StateListening:  "Listening…",
				fsm.StateProcessing: "Processing…",
				fsm.StateSpeaking:   "Speaking…",
				fsm.StateError:      "Error",
			},
			unknown:   "Unknown",
			noKeyword: "no keyword",
			interim:   "interim",
			final:     "final",
		}
	}
}

func (m messages) state(s fsm.State) string {
	if label, ok := m.states[s]; ok {
		return label
	}
	return m.unknown
}
