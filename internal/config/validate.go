package config

import (
	"fmt"
	"net"
	"strings"
)

var logLevels = map[string]struct{}{"debug": {}, "info": {}, "warn": {}, "error": {}}

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if strings.TrimSpace(cfg.Speech.Model) == "" {
		return nil, fmt.Errorf("speech.model must not be empty")
	}
	if strings.TrimSpace(cfg.Speech.Language) == "" {
		return nil, fmt.Errorf("speech.language must not be empty")
	}
	if cfg.Speech.InterimIntervalMS <= 0 {
		return nil, fmt.Errorf("speech.interim_interval_ms must be > 0")
	}
	if cfg.Speech.FinalDelayMS < 0 {
		return nil, fmt.Errorf("speech.final_delay_ms must be >= 0")
	}
	if err := validateRate("speech.failure_rate", cfg.Speech.FailureRate); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Synthesis.Voice) == "" {
		return nil, fmt.Errorf("synthesis.voice must not be empty")
	}
	if cfg.Synthesis.Speed <= 0 || cfg.Synthesis.Speed > 4 {
		return nil, fmt.Errorf("synthesis.speed must be within (0,4]")
	}
	if cfg.Synthesis.Pitch <= 0 || cfg.Synthesis.Pitch > 2 {
		return nil, fmt.Errorf("synthesis.pitch must be within (0,2]")
	}
	if err := validateRate("synthesis.failure_rate", cfg.Synthesis.FailureRate); err != nil {
		return nil, err
	}

	if cfg.Detector.SilenceThresholdMS <= 0 {
		return nil, fmt.Errorf("detector.silence_threshold_ms must be > 0")
	}
	if cfg.Detector.PollIntervalMS <= 0 {
		return nil, fmt.Errorf("detector.poll_interval_ms must be > 0")
	}
	if cfg.Session.MaxRecordingMS <= 0 {
		return nil, fmt.Errorf("session.max_recording_ms must be > 0")
	}

	if listen := strings.TrimSpace(cfg.RPC.Listen); listen != "" {
		if _, _, err := net.SplitHostPort(listen); err != nil {
			return nil, fmt.Errorf("rpc.listen must be host:port: %w", err)
		}
	}
	if _, ok := logLevels[cfg.Log.Level]; !ok {
		return nil, fmt.Errorf("log.level must be one of: debug, info, warn, error")
	}

	if cfg.Speech.FailureRate > 0 {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("speech.failure_rate=%v injects recognition failures", cfg.Speech.FailureRate)})
	}
	if cfg.Synthesis.FailureRate > 0 {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("synthesis.failure_rate=%v injects synthesis failures", cfg.Synthesis.FailureRate)})
	}
	if cfg.Detector.Enable && cfg.Detector.PollIntervalMS >= cfg.Session.MaxRecordingMS {
		warnings = append(warnings, Warning{Message: "detector.poll_interval_ms is not shorter than session.max_recording_ms; speech will never be detected"})
	}
	if cfg.Speech.FinalDelayMS >= cfg.Session.MaxRecordingMS {
		warnings = append(warnings, Warning{Message: "speech.final_delay_ms is not shorter than session.max_recording_ms; sessions end before a final transcript"})
	}

	return warnings, nil
}

func validateRate(key string, rate float64) error {
	if rate < 0 || rate > 1 {
		return fmt.Errorf("%s must be within [0,1]", key)
	}
	return nil
}
