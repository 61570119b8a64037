// Package cli parses warden command-line arguments.
package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"
)

type Command string

const (
	CommandRun     Command = "run"
	CommandListen  Command = "listen"
	CommandStop    Command = "stop"
	CommandSpeak   Command = "speak"
	CommandHush    Command = "hush"
	CommandStatus  Command = "status"
	CommandWatch   Command = "watch"
	CommandParse   Command = "parse"
	CommandDoctor  Command = "doctor"
	CommandVersion Command = "version"
	CommandHelp    Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandRun:     {},
	CommandListen:  {},
	CommandStop:    {},
	CommandSpeak:   {},
	CommandHush:    {},
	CommandStatus:  {},
	CommandWatch:   {},
	CommandParse:   {},
	CommandDoctor:  {},
	CommandVersion: {},
	CommandHelp:    {},
}

// textCommands consume every remaining argument as their text operand.
var textCommands = map[Command]struct{}{
	CommandSpeak: {},
	CommandParse: {},
}

type Parsed struct {
	Command    Command
	ConfigPath string
	Text       string
	Verbose    bool
	ShowHelp   bool
}

func Parse(args []string) (Parsed, error) {
	fs := pflag.NewFlagSet("warden", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	// Everything after the command word belongs to the command.
	fs.SetInterspersed(false)

	var parsed Parsed
	showHelp := fs.BoolP("help", "h", false, "show help")
	showVersion := fs.Bool("version", false, "show version")
	fs.BoolVarP(&parsed.Verbose, "verbose", "v", false, "include interim transcripts and debug diagnostics")
	fs.StringVar(&parsed.ConfigPath, "config", "", "config file path")

	if err := fs.Parse(args); err != nil {
		return Parsed{}, err
	}

	switch {
	case *showHelp:
		parsed.Command, parsed.ShowHelp = CommandHelp, true
		return parsed, nil
	case *showVersion:
		parsed.Command = CommandVersion
		return parsed, nil
	}

	rest := fs.Args()
	if len(rest) == 0 {
		parsed.Command, parsed.ShowHelp = CommandHelp, true
		return parsed, nil
	}

	cmd := Command(rest[0])
	if _, ok := validCommands[cmd]; !ok {
		return Parsed{}, fmt.Errorf("unknown command: %s", rest[0])
	}
	parsed.Command = cmd
	parsed.ShowHelp = cmd == CommandHelp

	if _, ok := textCommands[cmd]; ok {
		text := strings.TrimSpace(strings.Join(rest[1:], " "))
		if text == "" {
			return Parsed{}, fmt.Errorf("command %q requires text", rest[0])
		}
		parsed.Text = text
		return parsed, nil
	}
	if len(rest) > 1 {
		return Parsed{}, fmt.Errorf("unexpected arguments after command %q", rest[0])
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] [-v] <command>

Commands:
  run          Start the voice pipeline owner and print events
  listen       Start a listening session
  stop         Stop the active listening session
  speak TEXT   Speak TEXT, interrupting listening or speech
  hush         Stop speaking
  status       Print current state
  watch        Stream events from the running owner over gRPC
  parse TEXT   Print the command intent for TEXT without the pipeline
  doctor       Run configuration and environment checks
  version      Print version information
  help         Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/warden/config.jsonc)
  -v, --verbose   Include interim transcripts and debug diagnostics
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
