// Package config resolves, parses, validates, and defaults warden configuration.
package config

// Config is the fully materialized runtime configuration used by warden.
type Config struct {
	Speech    SpeechConfig
	Synthesis SynthesisConfig
	Detector  DetectorConfig
	Session   SessionConfig
	Responses ResponsesConfig
	RPC       RPCConfig
	Log       LogConfig
}

// SpeechConfig controls the simulated recognizer.
type SpeechConfig struct {
	Model             string
	Language          string
	InterimIntervalMS int
	FinalDelayMS      int
	FailureRate       float64
	Phrases           []string
}

// SynthesisConfig controls the simulated voice.
type SynthesisConfig struct {
	Voice       string
	Speed       float64
	Pitch       float64
	FailureRate float64
}

// DetectorConfig controls voice activity detection.
type DetectorConfig struct {
	Enable             bool
	SilenceThresholdMS int
	PollIntervalMS     int
}

// SessionConfig bounds one listening session.
type SessionConfig struct {
	MaxRecordingMS int
}

// ResponsesConfig controls spoken acknowledgements of recognized commands.
type ResponsesConfig struct {
	Enable bool
}

// RPCConfig controls the gRPC control plane. An empty Listen disables it.
type RPCConfig struct {
	Listen string
}

// LogConfig controls the structured log sink.
type LogConfig struct {
	Level string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
