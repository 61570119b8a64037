package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		Speech: SpeechConfig{
			Model:             "whisper-tiny.en",
			Language:          "en-US",
			InterimIntervalMS: 300,
			FinalDelayMS:      2000,
		},
		Synthesis: SynthesisConfig{
			Voice: "default",
			Speed: 1.0,
			Pitch: 1.0,
		},
		Detector: DetectorConfig{
			Enable:             true,
			SilenceThresholdMS: 1500,
			PollIntervalMS:     500,
		},
		Session:   SessionConfig{MaxRecordingMS: 30000},
		Responses: ResponsesConfig{Enable: true},
		RPC:       RPCConfig{Listen: "127.0.0.1:7341"},
		Log:       LogConfig{Level: "info"},
	}
}
