// Package intent maps recognized speech to auditor command intents.
package intent

import "strings"

// Intent is the normalized command category.
type Intent string

const (
	Audit   Intent = "audit"
	Scan    Intent = "scan"
	Explain Intent = "explain"
	Report  Intent = "report"
	Stop    Intent = "stop"
	Help    Intent = "help"
	Unknown Intent = "unknown"
)

// Keyword binds one lower-case substring to an intent.
type Keyword struct {
	Phrase string
	Intent Intent
}

// keywords is scanned in order; the first phrase found in the transcript wins.
var keywords = []Keyword{
	{Phrase: "audit", Intent: Audit},
	{Phrase: "analyze", Intent: Audit},
	{Phrase: "scan", Intent: Scan},
	{Phrase: "vulnerabilit", Intent: Scan},
	{Phrase: "explain", Intent: Explain},
	{Phrase: "what is", Intent: Explain},
	{Phrase: "why", Intent: Explain},
	{Phrase: "report", Intent: Report},
	{Phrase: "summary", Intent: Report},
	{Phrase: "stop", Intent: Stop},
	{Phrase: "cancel", Intent: Stop},
	{Phrase: "help", Intent: Help},
}

// Command is the parsed form of one final transcript.
type Command struct {
	MatchedKeyword string
	Intent         Intent
	RawTranscript  string
	Confidence     float64
}

// Recognized reports whether the transcript matched a keyword.
func (c Command) Recognized() bool {
	return c.Intent != Unknown
}

// Parse resolves a transcript against the keyword table.
func Parse(transcript string, confidence float64) Command {
	cmd := Command{Intent: Unknown, RawTranscript: transcript, Confidence: confidence}

	normalized := strings.ToLower(strings.Join(strings.Fields(transcript), " "))
	if normalized == "" {
		return cmd
	}

	for _, kw := range keywords {
		if strings.Contains(normalized, kw.Phrase) {
			cmd.MatchedKeyword = kw.Phrase
			cmd.Intent = kw.Intent
			return cmd
		}
	}
	return cmd
}

// Keywords returns a copy of the keyword table in match order.
func Keywords() []Keyword {
	out := make([]Keyword, len(keywords))
	copy(out, keywords)
	return out
}
