package config

import (
	"time"

	"github.com/rbright/warden/internal/session"
	"github.com/rbright/warden/internal/speech"
	"github.com/rbright/warden/internal/synthesis"
	"github.com/rbright/warden/internal/vad"
)

// SpeechEngine maps speech settings onto the recognizer configuration.
func (c Config) SpeechEngine() speech.Config {
	cfg := speech.Config{
		Model:           c.Speech.Model,
		Language:        c.Speech.Language,
		InterimInterval: ms(c.Speech.InterimIntervalMS),
		FinalDelay:      ms(c.Speech.FinalDelayMS),
		FailureRate:     c.Speech.FailureRate,
	}
	if len(c.Speech.Phrases) > 0 {
		cfg.Phrases = append([]string(nil), c.Speech.Phrases...)
	}
	return cfg
}

// SynthesisEngine maps synthesis settings onto the synthesizer configuration.
func (c Config) SynthesisEngine() synthesis.Config {
	return synthesis.Config{
		Voice:       c.Synthesis.Voice,
		Speed:       c.Synthesis.Speed,
		Pitch:       c.Synthesis.Pitch,
		FailureRate: c.Synthesis.FailureRate,
	}
}

// DetectorEngine maps detector settings onto the activity detector configuration.
func (c Config) DetectorEngine() vad.Config {
	return vad.Config{
		SilenceThreshold: ms(c.Detector.SilenceThresholdMS),
		PollInterval:     ms(c.Detector.PollIntervalMS),
	}
}

// SessionOptions maps session settings onto controller options.
func (c Config) SessionOptions() session.Options {
	return session.Options{
		MaxRecording:    ms(c.Session.MaxRecordingMS),
		DetectorEnabled: c.Detector.Enable,
	}
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}
