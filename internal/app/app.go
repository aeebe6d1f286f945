// Package app dispatches CLI commands, owns the interview session process,
// and forwards turn commands to a running owner over IPC.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/greenroom-dev/greenroom/internal/audio"
	"github.com/greenroom-dev/greenroom/internal/cli"
	"github.com/greenroom-dev/greenroom/internal/config"
	"github.com/greenroom-dev/greenroom/internal/doctor"
	"github.com/greenroom-dev/greenroom/internal/ipc"
	"github.com/greenroom-dev/greenroom/internal/logging"
	"github.com/greenroom-dev/greenroom/internal/report"
	"github.com/greenroom-dev/greenroom/internal/version"
)

const forwardTimeout = 30 * time.Second

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("greenroom"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("greenroom"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		fmt.Fprintf(r.Stderr, "warning: %s\n", w.Message)
		logger.Warn("config warning", "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		rep := doctor.Run(cfgLoaded)
		fmt.Fprintln(r.Stdout, rep.String())
		if rep.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandShow:
		return r.commandShow(ctx)
	case cli.CommandReport:
		return r.commandReport(ctx, cfgLoaded.Config, parsed.Copy)
	case cli.CommandType:
		return r.forwardOrFail(ctx, ipc.Request{Command: ipc.CmdType, Text: parsed.Text})
	case cli.CommandRecord, cli.CommandClear, cli.CommandSubmit, cli.CommandReset:
		return r.forwardOrFail(ctx, ipc.Request{Command: ipc.Command(parsed.Command)})
	case cli.CommandStart:
		return r.commandStart(ctx, cfgLoaded.Config, logger, parsed.Role, parsed.Mode)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		availability := "yes"
		if !device.Available {
			availability = "no"
		}
		muted := "no"
		if device.Muted {
			muted = "yes"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			availability,
			muted,
		)
	}

	return 0
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "setup (no session)")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, ipc.Request{Command: ipc.CmdStatus})
	if !handled {
		fmt.Fprintln(r.Stdout, "setup (no session)")
		return 0
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	fmt.Fprintln(r.Stdout, resp.State)
	if session := resp.Session; session != nil && resp.State == "active" {
		fmt.Fprintf(r.Stdout, "turn %d of %d", session.Index+1, session.Total)
		if session.Recording {
			fmt.Fprint(r.Stdout, ", recording")
		}
		if session.Pending {
			fmt.Fprint(r.Stdout, ", submission pending")
		}
		fmt.Fprintln(r.Stdout)
	}
	return 0
}

func (r Runner) commandShow(ctx context.Context) int {
	resp, code := r.forward(ctx, ipc.Request{Command: ipc.CmdShow})
	if code != 0 {
		return code
	}

	session := resp.Session
	if session == nil {
		fmt.Fprintln(r.Stderr, "error: owner returned no session view")
		return 1
	}

	fmt.Fprintf(r.Stdout, "Q%d/%d: %s\n", session.Index+1, session.Total, session.Question)
	if session.Answer != "" {
		fmt.Fprintf(r.Stdout, "Answer: %s\n", session.Answer)
	}
	if session.Interim != "" {
		fmt.Fprintf(r.Stdout, "(interim: %s)\n", session.Interim)
	}
	if session.Recording {
		fmt.Fprintln(r.Stdout, "(recording)")
	}
	return 0
}

func (r Runner) commandReport(ctx context.Context, cfg config.Config, copyToClipboard bool) int {
	resp, code := r.forward(ctx, ipc.Request{Command: ipc.CmdReport})
	if code != 0 {
		return code
	}
	if resp.Session == nil {
		fmt.Fprintln(r.Stderr, "error: owner returned no session view")
		return 1
	}

	rendered := report.Render(*resp.Session)
	fmt.Fprint(r.Stdout, rendered)

	if copyToClipboard {
		exporter := report.NewExporter(cfg.Report, nil)
		if err := exporter.Copy(ctx, rendered); err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		fmt.Fprintln(r.Stdout, "copied to clipboard")
	}
	return 0
}

// forwardOrFail sends a command to the owner and prints its message.
func (r Runner) forwardOrFail(ctx context.Context, req ipc.Request) int {
	resp, code := r.forward(ctx, req)
	if code != 0 {
		return code
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

func (r Runner) forward(ctx context.Context, req ipc.Request) (ipc.Response, int) {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return ipc.Response{}, 1
	}

	resp, handled, err := tryForward(ctx, socketPath, req)
	if !handled {
		fmt.Fprintln(r.Stderr, "error: no active greenroom session (run `greenroom start --role ...` first)")
		return ipc.Response{}, 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return ipc.Response{}, 1
	}
	return resp, 0
}

func tryForward(ctx context.Context, socketPath string, req ipc.Request) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, req, forwardTimeout)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if ipc.IsNoOwner(err) {
		return ipc.Response{}, false, nil
	}

	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", req.Command, err)
}
