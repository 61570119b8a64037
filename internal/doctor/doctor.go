// Package doctor runs readiness diagnostics for config, environment, and engines.
package doctor

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/rbright/warden/internal/clock"
	"github.com/rbright/warden/internal/config"
	"github.com/rbright/warden/internal/intent"
	"github.com/rbright/warden/internal/ipc"
	"github.com/rbright/warden/internal/random"
	"github.com/rbright/warden/internal/speech"
	"github.com/rbright/warden/internal/synthesis"
	"github.com/rbright/warden/internal/vad"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

type engine interface {
	Initialize() error
	Destroy()
}

// Run executes environment/config/engine checks for a loaded config.
func Run(cfg config.Loaded) Report {
	checks := []Check{}

	message := fmt.Sprintf("loaded %q", cfg.Path)
	if !cfg.Exists {
		message = fmt.Sprintf("using defaults (%q not found)", cfg.Path)
	}
	if len(cfg.Warnings) > 0 {
		message = fmt.Sprintf("%s with %d warning(s)", message, len(cfg.Warnings))
	}
	checks = append(checks, Check{Name: "config", Pass: true, Message: message})

	checks = append(checks, checkEnv("XDG_RUNTIME_DIR", func(v string) bool {
		return strings.TrimSpace(v) != ""
	}, "runtime dir available for the control socket", "XDG_RUNTIME_DIR is empty"))

	clk := clock.Real()
	src := random.New()
	checks = append(checks,
		checkEngine("engine.speech", speech.New(cfg.Config.SpeechEngine(), clk, src),
			fmt.Sprintf("model %s (%s)", cfg.Config.Speech.Model, cfg.Config.Speech.Language)),
		checkEngine("engine.synthesis", synthesis.New(cfg.Config.SynthesisEngine(), clk, src),
			fmt.Sprintf("voice %s", cfg.Config.Synthesis.Voice)),
	)
	if cfg.Config.Detector.Enable {
		checks = append(checks, checkEngine("engine.detector", vad.New(cfg.Config.DetectorEngine(), clk),
			fmt.Sprintf("silence threshold %dms", cfg.Config.Detector.SilenceThresholdMS)))
	}

	checks = append(checks, checkKeywords())
	checks = append(checks, checkRPCListen(cfg.Config.RPC.Listen))
	checks = append(checks, checkOwner())

	return Report{Checks: checks}
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

// checkEngine brings one engine up and down with the loaded settings.
func checkEngine(name string, e engine, okMsg string) Check {
	if err := e.Initialize(); err != nil {
		return Check{Name: name, Pass: false, Message: err.Error()}
	}
	e.Destroy()
	return Check{Name: name, Pass: true, Message: okMsg}
}

func checkKeywords() Check {
	keywords := intent.Keywords()
	if len(keywords) == 0 {
		return Check{Name: "intent.keywords", Pass: false, Message: "keyword table is empty"}
	}
	return Check{Name: "intent.keywords", Pass: true, Message: fmt.Sprintf("%d keywords", len(keywords))}
}

func checkRPCListen(listen string) Check {
	listen = strings.TrimSpace(listen)
	if listen == "" {
		return Check{Name: "rpc.listen", Pass: true, Message: "disabled"}
	}
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return Check{Name: "rpc.listen", Pass: false, Message: err.Error()}
	}
	if host == "" {
		host = "all interfaces"
	}
	return Check{Name: "rpc.listen", Pass: true, Message: fmt.Sprintf("port %s on %s", port, host)}
}

// checkOwner reports whether a warden owner already answers on the control socket.
func checkOwner() Check {
	path, err := ipc.RuntimeSocketPath()
	if err != nil {
		return Check{Name: "owner", Pass: false, Message: err.Error()}
	}
	alive, err := ipc.Ping(context.Background(), path, 300*time.Millisecond)
	if err != nil {
		return Check{Name: "owner", Pass: false, Message: err.Error()}
	}
	if alive {
		return Check{Name: "owner", Pass: true, Message: fmt.Sprintf("running at %s", path)}
	}
	return Check{Name: "owner", Pass: true, Message: fmt.Sprintf("not running (%s)", path)}
}
