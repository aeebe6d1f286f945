// Package cli parses command-line arguments for the greenroom binary.
package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandStart   Command = "start"
	CommandRecord  Command = "record"
	CommandType    Command = "type"
	CommandClear   Command = "clear"
	CommandShow    Command = "show"
	CommandSubmit  Command = "submit"
	CommandStatus  Command = "status"
	CommandReport  Command = "report"
	CommandReset   Command = "reset"
	CommandDevices Command = "devices"
	CommandDoctor  Command = "doctor"
	CommandVersion Command = "version"
	CommandHelp    Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandStart:   {},
	CommandRecord:  {},
	CommandType:    {},
	CommandClear:   {},
	CommandShow:    {},
	CommandSubmit:  {},
	CommandStatus:  {},
	CommandReport:  {},
	CommandReset:   {},
	CommandDevices: {},
	CommandDoctor:  {},
	CommandVersion: {},
	CommandHelp:    {},
}

type Parsed struct {
	Command    Command
	ConfigPath string
	Role       string
	Mode       string
	Text       string
	Copy       bool
	ShowHelp   bool
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}
	sawCommand := false

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		case "--role":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--role requires a value")
			}
			parsed.Role = args[i]
		case "--mode":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--mode requires a value")
			}
			parsed.Mode = args[i]
		case "--copy":
			parsed.Copy = true
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			if sawCommand {
				return Parsed{}, fmt.Errorf("unexpected argument %q", arg)
			}

			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
			sawCommand = true

			// "type" consumes the rest of the line as answer text.
			if cmd == CommandType {
				if i == len(args)-1 {
					return Parsed{}, errors.New("type requires text")
				}
				parsed.Text = strings.Join(args[i+1:], " ")
				i = len(args)
			}
		}
	}

	if parsed.Command == CommandStart && strings.TrimSpace(parsed.Role) == "" {
		return Parsed{}, errors.New("start requires --role")
	}
	if parsed.Copy && parsed.Command != CommandReport {
		return Parsed{}, errors.New("--copy only applies to report")
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command>

Commands:
  start     Start an interview session and serve it (requires --role)
  record    Toggle speech transcription for the current answer
  type      Append typed text to the current answer (rest of line)
  clear     Clear the current answer buffer
  show      Print the current question and accumulated answer
  submit    Submit the current answer for scoring
  status    Print session state
  report    Print the debrief report (--copy exports to clipboard)
  reset     Abandon or discard the session
  devices   List available input devices
  doctor    Run configuration and environment checks
  version   Print version information
  help      Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/greenroom/config.json)
  --role ROLE     Target role for a new interview (start only)
  --mode MODE     Interview mode: technical or behavioral (start only)
  --copy          Copy the report to the clipboard (report only)
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
