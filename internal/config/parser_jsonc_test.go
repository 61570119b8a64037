package config

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeJSONCRemovesCommentsAndTrailingCommas(t *testing.T) {
	input := `
{
  // line comment
  "items": [
    "one", /* block comment */
    "two",
  ],
  "nested": {
    "enabled": true,
  },
}
`

	normalized, err := normalizeJSONC(input)
	require.NoError(t, err)
	require.NotContains(t, normalized, "//")
	require.NotContains(t, normalized, "/*")
	require.NotContains(t, normalized, ",]")
	require.NotContains(t, normalized, ",}")
}

func TestNormalizeJSONCRetainsCommentLikeTextInsideStrings(t *testing.T) {
	input := `{"value":"contains // and /* comment-like */ text",}`
	normalized, err := normalizeJSONC(input)
	require.NoError(t, err)
	require.Contains(t, normalized, "// and /* comment-like */")
}

func TestNormalizeJSONCUnterminatedBlockCommentFails(t *testing.T) {
	_, err := normalizeJSONC("{ /* unterminated ")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unterminated block comment")
}

func TestNormalizeJSONCPreservesOffsets(t *testing.T) {
	input := "{\n  \"a\": [1, 2,], // tail\n  \"b\": \"x\\\",\", /* c */\n}"
	normalized, err := normalizeJSONC(input)
	require.NoError(t, err)
	require.Len(t, normalized, len(input))
	require.Equal(t, "{\n  \"a\": [1, 2 ],        \n  \"b\": \"x\\\",\"         \n}", normalized)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(normalized), &decoded))
	require.Equal(t, `x",`, decoded["b"])
}

func TestEnsureSingleJSONValueRejectsExtraPayload(t *testing.T) {
	decoder := json.NewDecoder(strings.NewReader(`{"one":1}{"two":2}`))
	var payload map[string]any
	require.NoError(t, decoder.Decode(&payload))

	err := ensureSingleJSONValue(decoder)
	require.Error(t, err)
	require.Contains(t, err.Error(), "multiple JSON values")
}

func TestOffsetToLineCol(t *testing.T) {
	content := "line1\nline2\nline3"
	line, col := offsetToLineCol(content, 1)
	require.Equal(t, 1, line)
	require.Equal(t, 1, col)

	line, col = offsetToLineCol(content, 8) // line2, col2
	require.Equal(t, 2, line)
	require.Equal(t, 2, col)

	line, col = offsetToLineCol(content, 999)
	require.Equal(t, 3, line)
	require.Equal(t, 5, col)
}

func TestStringListUnmarshalJSON(t *testing.T) {
	var list stringList
	require.NoError(t, list.UnmarshalJSON([]byte(`["a","b"]`)))
	require.Equal(t, []string{"a", "b"}, []string(list))

	require.NoError(t, list.UnmarshalJSON([]byte(`"a, b, , c"`)))
	require.Equal(t, []string{"a", "b", "c"}, []string(list))

	err := list.UnmarshalJSON([]byte(`123`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "expected string array")
}

func TestParseJSONCAppliesNestedKeys(t *testing.T) {
	cfg, warnings, err := parseJSONC(`{
  // engines
  "speech": {
    "model": " whisper-base.en ",
    "interim_interval_ms": 250,
    "phrases": ["audit the repo", "Audit the  repo", "stop"],
  },
  "synthesis": {"voice": "amy", "speed": 1.5},
  "detector": {"enable": false},
  "session": {"max_recording_ms": 10000},
  "responses": {"enable": false},
  "rpc": {"listen": ""},
  "log": {"level": "DEBUG"},
}`, Default())
	require.NoError(t, err)
	require.Equal(t, "whisper-base.en", cfg.Speech.Model)
	require.Equal(t, 250, cfg.Speech.InterimIntervalMS)
	require.Equal(t, 2000, cfg.Speech.FinalDelayMS)
	require.Equal(t, []string{"audit the repo", "stop"}, cfg.Speech.Phrases)
	require.Equal(t, "amy", cfg.Synthesis.Voice)
	require.Equal(t, 1.5, cfg.Synthesis.Speed)
	require.Equal(t, 1.0, cfg.Synthesis.Pitch)
	require.False(t, cfg.Detector.Enable)
	require.Equal(t, 10000, cfg.Session.MaxRecordingMS)
	require.False(t, cfg.Responses.Enable)
	require.Empty(t, cfg.RPC.Listen)
	require.Equal(t, "debug", cfg.Log.Level)

	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "duplicate phrase")
}

func TestParseJSONCRejectsUnknownField(t *testing.T) {
	_, _, err := parseJSONC(`{"speech":{"engine":"riva"}}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown field")
}

func TestParseJSONCRejectsMultipleTopLevelValues(t *testing.T) {
	_, _, err := parseJSONC(`{"detector":{"enable":false}}{"detector":{"enable":true}}`, Default())
	require.Error(t, err)
	require.True(
		t,
		strings.Contains(err.Error(), "multiple JSON values") || strings.Contains(err.Error(), "unknown field"),
		"unexpected error: %v",
		err,
	)
}

func TestParseJSONCTypeErrorIncludesLocation(t *testing.T) {
	_, _, err := parseJSONC(`{
  "speech": {"interim_interval_ms": "fast"}
}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 2")
	require.Contains(t, err.Error(), "column")
}

func TestParseJSONCPhrasesSupportCommaString(t *testing.T) {
	cfg, _, err := parseJSONC(`{"speech": {"phrases": "scan the code, , explain this"}}`, Default())
	require.NoError(t, err)
	require.Equal(t, []string{"scan the code", "explain this"}, cfg.Speech.Phrases)
}
