package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateDefaultsHasNoWarnings(t *testing.T) {
	warnings, err := Validate(Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
}

func TestValidateRejectsInvalidCoreFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "empty model", mutate: func(c *Config) { c.Speech.Model = " " }, wantErr: "speech.model"},
		{name: "empty language", mutate: func(c *Config) { c.Speech.Language = "" }, wantErr: "speech.language"},
		{name: "zero interim interval", mutate: func(c *Config) { c.Speech.InterimIntervalMS = 0 }, wantErr: "interim_interval_ms"},
		{name: "negative final delay", mutate: func(c *Config) { c.Speech.FinalDelayMS = -1 }, wantErr: "final_delay_ms"},
		{name: "speech failure rate", mutate: func(c *Config) { c.Speech.FailureRate = 1.5 }, wantErr: "speech.failure_rate"},
		{name: "empty voice", mutate: func(c *Config) { c.Synthesis.Voice = "" }, wantErr: "synthesis.voice"},
		{name: "speed too high", mutate: func(c *Config) { c.Synthesis.Speed = 5 }, wantErr: "synthesis.speed"},
		{name: "zero pitch", mutate: func(c *Config) { c.Synthesis.Pitch = 0 }, wantErr: "synthesis.pitch"},
		{name: "synthesis failure rate", mutate: func(c *Config) { c.Synthesis.FailureRate = -0.1 }, wantErr: "synthesis.failure_rate"},
		{name: "zero silence threshold", mutate: func(c *Config) { c.Detector.SilenceThresholdMS = 0 }, wantErr: "silence_threshold_ms"},
		{name: "zero poll interval", mutate: func(c *Config) { c.Detector.PollIntervalMS = 0 }, wantErr: "poll_interval_ms"},
		{name: "zero max recording", mutate: func(c *Config) { c.Session.MaxRecordingMS = 0 }, wantErr: "max_recording_ms"},
		{name: "bad rpc listen", mutate: func(c *Config) { c.RPC.Listen = "localhost" }, wantErr: "rpc.listen"},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "trace" }, wantErr: "log.level"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			_, err := Validate(cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateWarnsOnUnreachableTimings(t *testing.T) {
	cfg := Default()
	cfg.Session.MaxRecordingMS = 400
	cfg.Speech.FinalDelayMS = 400

	warnings, err := Validate(cfg)
	require.NoError(t, err)
	require.Len(t, warnings, 2)
	require.Contains(t, warnings[0].Message, "detector.poll_interval_ms")
	require.Contains(t, warnings[1].Message, "speech.final_delay_ms")
}

func TestValidateAllowsDisabledRPC(t *testing.T) {
	cfg := Default()
	cfg.RPC.Listen = ""
	_, err := Validate(cfg)
	require.NoError(t, err)
}
