package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// filePayload is the on-disk shape shared by the JSONC and YAML formats. Absent
// keys keep their base values.
type filePayload struct {
	Speech    *speechPayload    `json:"speech" yaml:"speech"`
	Synthesis *synthesisPayload `json:"synthesis" yaml:"synthesis"`
	Detector  *detectorPayload  `json:"detector" yaml:"detector"`
	Session   *sessionPayload   `json:"session" yaml:"session"`
	Responses *responsesPayload `json:"responses" yaml:"responses"`
	RPC       *rpcPayload       `json:"rpc" yaml:"rpc"`
	Log       *logPayload       `json:"log" yaml:"log"`
}

type speechPayload struct {
	Model             *string     `json:"model" yaml:"model"`
	Language          *string     `json:"language" yaml:"language"`
	InterimIntervalMS *int        `json:"interim_interval_ms" yaml:"interim_interval_ms"`
	FinalDelayMS      *int        `json:"final_delay_ms" yaml:"final_delay_ms"`
	FailureRate       *float64    `json:"failure_rate" yaml:"failure_rate"`
	Phrases           *stringList `json:"phrases" yaml:"phrases"`
}

type synthesisPayload struct {
	Voice       *string  `json:"voice" yaml:"voice"`
	Speed       *float64 `json:"speed" yaml:"speed"`
	Pitch       *float64 `json:"pitch" yaml:"pitch"`
	FailureRate *float64 `json:"failure_rate" yaml:"failure_rate"`
}

type detectorPayload struct {
	Enable             *bool `json:"enable" yaml:"enable"`
	SilenceThresholdMS *int  `json:"silence_threshold_ms" yaml:"silence_threshold_ms"`
	PollIntervalMS     *int  `json:"poll_interval_ms" yaml:"poll_interval_ms"`
}

type sessionPayload struct {
	MaxRecordingMS *int `json:"max_recording_ms" yaml:"max_recording_ms"`
}

type responsesPayload struct {
	Enable *bool `json:"enable" yaml:"enable"`
}

type rpcPayload struct {
	Listen *string `json:"listen" yaml:"listen"`
}

type logPayload struct {
	Level *string `json:"level" yaml:"level"`
}

// stringList accepts either a list of strings or one comma-delimited string.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = splitCommaList(single)
		return nil
	}

	return fmt.Errorf("expected string array or comma-delimited string")
}

func (l *stringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*l = list
		return nil
	case yaml.ScalarNode:
		*l = splitCommaList(node.Value)
		return nil
	default:
		return fmt.Errorf("line %d: expected string list or comma-delimited string", node.Line)
	}
}

func splitCommaList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

func (payload filePayload) applyTo(cfg *Config) []Warning {
	warnings := make([]Warning, 0)

	if s := payload.Speech; s != nil {
		if s.Model != nil {
			cfg.Speech.Model = strings.TrimSpace(*s.Model)
		}
		if s.Language != nil {
			cfg.Speech.Language = strings.TrimSpace(*s.Language)
		}
		if s.InterimIntervalMS != nil {
			cfg.Speech.InterimIntervalMS = *s.InterimIntervalMS
		}
		if s.FinalDelayMS != nil {
			cfg.Speech.FinalDelayMS = *s.FinalDelayMS
		}
		if s.FailureRate != nil {
			cfg.Speech.FailureRate = *s.FailureRate
		}
		if s.Phrases != nil {
			phrases, dupes := dedupePhrases(*s.Phrases)
			cfg.Speech.Phrases = phrases
			for _, phrase := range dupes {
				warnings = append(warnings, Warning{Message: fmt.Sprintf("speech.phrases: duplicate phrase %q ignored", phrase)})
			}
		}
	}

	if s := payload.Synthesis; s != nil {
		if s.Voice != nil {
			cfg.Synthesis.Voice = strings.TrimSpace(*s.Voice)
		}
		if s.Speed != nil {
			cfg.Synthesis.Speed = *s.Speed
		}
		if s.Pitch != nil {
			cfg.Synthesis.Pitch = *s.Pitch
		}
		if s.FailureRate != nil {
			cfg.Synthesis.FailureRate = *s.FailureRate
		}
	}

	if d := payload.Detector; d != nil {
		if d.Enable != nil {
			cfg.Detector.Enable = *d.Enable
		}
		if d.SilenceThresholdMS != nil {
			cfg.Detector.SilenceThresholdMS = *d.SilenceThresholdMS
		}
		if d.PollIntervalMS != nil {
			cfg.Detector.PollIntervalMS = *d.PollIntervalMS
		}
	}

	if payload.Session != nil && payload.Session.MaxRecordingMS != nil {
		cfg.Session.MaxRecordingMS = *payload.Session.MaxRecordingMS
	}
	if payload.Responses != nil && payload.Responses.Enable != nil {
		cfg.Responses.Enable = *payload.Responses.Enable
	}
	if payload.RPC != nil && payload.RPC.Listen != nil {
		cfg.RPC.Listen = strings.TrimSpace(*payload.RPC.Listen)
	}
	if payload.Log != nil && payload.Log.Level != nil {
		cfg.Log.Level = strings.ToLower(strings.TrimSpace(*payload.Log.Level))
	}

	return warnings
}

// dedupePhrases trims phrases and drops blanks and case-insensitive repeats,
// keeping the first spelling.
func dedupePhrases(in []string) ([]string, []string) {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	var dupes []string
	for _, phrase := range in {
		phrase = strings.Join(strings.Fields(phrase), " ")
		if phrase == "" {
			continue
		}
		key := strings.ToLower(phrase)
		if _, ok := seen[key]; ok {
			dupes = append(dupes, phrase)
			continue
		}
		seen[key] = struct{}{}
		out = append(out, phrase)
	}
	return out, dupes
}
