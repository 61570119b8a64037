package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEmptyContentReturnsBase(t *testing.T) {
	cfg, warnings, err := Parse("  \n", Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, Default(), cfg)
}

func TestParseSelectsJSONCForBraces(t *testing.T) {
	cfg, _, err := Parse(`  {"synthesis": {"voice": "brian"}}`, Default())
	require.NoError(t, err)
	require.Equal(t, "brian", cfg.Synthesis.Voice)
}

func TestParseYAML(t *testing.T) {
	input := `
# warden
speech:
  language: en-GB
  final_delay_ms: 1500
  phrases:
    - explain this finding
    - generate a report
synthesis:
  pitch: 1.2
  failure_rate: 0.25
detector:
  poll_interval_ms: 250
rpc:
  listen: 127.0.0.1:9000
`

	cfg, warnings, err := Parse(input, Default())
	require.NoError(t, err)
	require.Equal(t, "en-GB", cfg.Speech.Language)
	require.Equal(t, 1500, cfg.Speech.FinalDelayMS)
	require.Equal(t, []string{"explain this finding", "generate a report"}, cfg.Speech.Phrases)
	require.Equal(t, 1.2, cfg.Synthesis.Pitch)
	require.Equal(t, 250, cfg.Detector.PollIntervalMS)
	require.Equal(t, "127.0.0.1:9000", cfg.RPC.Listen)

	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "synthesis.failure_rate")
}

func TestParseYAMLPhrasesAcceptCommaString(t *testing.T) {
	cfg, _, err := Parse("speech:\n  phrases: scan now, stop\n", Default())
	require.NoError(t, err)
	require.Equal(t, []string{"scan now", "stop"}, cfg.Speech.Phrases)
}

func TestParseYAMLCommentsOnlyKeepsDefaults(t *testing.T) {
	cfg, _, err := Parse("# nothing configured yet\n", Default())
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestParseYAMLUnknownKeyFails(t *testing.T) {
	_, _, err := Parse("speech:\n  engine: riva\n", Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 2")
	require.Contains(t, err.Error(), "not found")
}

func TestParseYAMLRejectsMultipleDocuments(t *testing.T) {
	_, _, err := Parse("log:\n  level: warn\n---\nlog:\n  level: info\n", Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "multiple YAML documents")
}

func TestParseYAMLValidates(t *testing.T) {
	_, _, err := Parse("session:\n  max_recording_ms: 0\n", Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "session.max_recording_ms")
}
