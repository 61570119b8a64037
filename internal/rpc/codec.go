package rpc

import (
	"fmt"
	"time"

	"github.com/rbright/warden/internal/events"
	"github.com/rbright/warden/internal/fsm"
	"github.com/rbright/warden/internal/intent"
	"github.com/rbright/warden/internal/session"
	"github.com/rbright/warden/internal/speech"
	"google.golang.org/protobuf/types/known/structpb"
)

// EncodeStatus converts a controller snapshot into its wire form.
func EncodeStatus(status session.Status) (*structpb.Struct, error) {
	fields := map[string]any{
		"state":           string(status.State),
		"ready":           status.Ready,
		"session_id":      status.SessionID,
		"utterance_id":    status.UtteranceID,
		"detector_active": status.DetectorActive,
		"last_transcript": status.LastTranscript,
		"last_error":      status.LastError,
	}
	if status.LastCommand != nil {
		fields["last_command"] = commandFields(*status.LastCommand)
	}
	return structpb.NewStruct(fields)
}

// DecodeStatus is the inverse of EncodeStatus.
func DecodeStatus(msg *structpb.Struct) session.Status {
	f := msg.GetFields()
	status := session.Status{
		State:          fsm.State(f["state"].GetStringValue()),
		Ready:          f["ready"].GetBoolValue(),
		SessionID:      f["session_id"].GetStringValue(),
		UtteranceID:    f["utterance_id"].GetStringValue(),
		DetectorActive: f["detector_active"].GetBoolValue(),
		LastTranscript: f["last_transcript"].GetStringValue(),
		LastError:      f["last_error"].GetStringValue(),
	}
	if cmd := f["last_command"].GetStructValue(); cmd != nil {
		decoded := decodeCommand(cmd)
		status.LastCommand = &decoded
	}
	return status
}

// EncodeEvent converts an event into its wire form.
func EncodeEvent(e events.Event) (*structpb.Struct, error) {
	fields := map[string]any{
		"kind": string(e.Kind),
		"at":   e.At.UTC().Format(time.RFC3339Nano),
	}

	switch e.Kind {
	case events.KindStateChanged:
		fields["state"] = map[string]any{"from": string(e.State.From), "to": string(e.State.To)}
	case events.KindTranscript:
		fields["transcript"] = map[string]any{
			"session_id": e.Transcript.SessionID,
			"text":       e.Transcript.Text,
			"confidence": e.Transcript.Confidence,
			"is_final":   e.Transcript.IsFinal,
			"language":   e.Transcript.Language,
			"timestamp":  e.Transcript.Timestamp.UTC().Format(time.RFC3339Nano),
		}
	case events.KindCommandRecognized:
		fields["command"] = commandFields(*e.Command)
	case events.KindDiagnostic:
		fields["diagnostic"] = map[string]any{
			"severity": string(e.Diagnostic.Severity),
			"message":  e.Diagnostic.Message,
		}
	default:
		return nil, fmt.Errorf("unknown event kind %q", e.Kind)
	}

	return structpb.NewStruct(fields)
}

// DecodeEvent is the inverse of EncodeEvent.
func DecodeEvent(msg *structpb.Struct) (events.Event, error) {
	f := msg.GetFields()
	at, err := parseTime(f["at"].GetStringValue())
	if err != nil {
		return events.Event{}, fmt.Errorf("decode event time: %w", err)
	}

	switch kind := events.Kind(f["kind"].GetStringValue()); kind {
	case events.KindStateChanged:
		state := f["state"].GetStructValue().GetFields()
		return events.StateChanged(at, fsm.State(state["from"].GetStringValue()), fsm.State(state["to"].GetStringValue())), nil
	case events.KindTranscript:
		t := f["transcript"].GetStructValue().GetFields()
		ts, err := parseTime(t["timestamp"].GetStringValue())
		if err != nil {
			return events.Event{}, fmt.Errorf("decode transcript time: %w", err)
		}
		return events.TranscriptReceived(at, speech.Result{
			SessionID:  t["session_id"].GetStringValue(),
			Text:       t["text"].GetStringValue(),
			Confidence: t["confidence"].GetNumberValue(),
			IsFinal:    t["is_final"].GetBoolValue(),
			Language:   t["language"].GetStringValue(),
			Timestamp:  ts,
		}), nil
	case events.KindCommandRecognized:
		return events.CommandRecognized(at, decodeCommand(f["command"].GetStructValue())), nil
	case events.KindDiagnostic:
		d := f["diagnostic"].GetStructValue().GetFields()
		return events.Diagnosed(at, events.Severity(d["severity"].GetStringValue()), d["message"].GetStringValue()), nil
	default:
		return events.Event{}, fmt.Errorf("unknown event kind %q", kind)
	}
}

func commandFields(cmd intent.Command) map[string]any {
	return map[string]any{
		"intent":          string(cmd.Intent),
		"matched_keyword": cmd.MatchedKeyword,
		"raw_transcript":  cmd.RawTranscript,
		"confidence":      cmd.Confidence,
	}
}

func decodeCommand(msg *structpb.Struct) intent.Command {
	f := msg.GetFields()
	return intent.Command{
		Intent:         intent.Intent(f["intent"].GetStringValue()),
		MatchedKeyword: f["matched_keyword"].GetStringValue(),
		RawTranscript:  f["raw_transcript"].GetStringValue(),
		Confidence:     f["confidence"].GetNumberValue(),
	}
}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, raw)
}
