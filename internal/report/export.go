package report

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/greenroom-dev/greenroom/internal/config"
)

// Exporter copies a rendered debrief to the clipboard through the
// configured command.
type Exporter struct {
	cfg    config.ReportConfig
	logger *slog.Logger
}

// NewExporter constructs a debrief exporter from runtime config.
func NewExporter(cfg config.ReportConfig, logger *slog.Logger) *Exporter {
	return &Exporter{cfg: cfg, logger: logger}
}

// Copy pipes the rendered report into report.copy_cmd.
func (e *Exporter) Copy(ctx context.Context, rendered string) error {
	if rendered == "" {
		return nil
	}

	copyCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := runCommandWithInput(copyCtx, e.cfg.CopyCmd.Argv, rendered); err != nil {
		return fmt.Errorf("copy report: %w", err)
	}

	if e.logger != nil {
		e.logger.Info("report copied to clipboard", "command", e.cfg.CopyCmd.Raw)
	}
	return nil
}

// runCommandWithInput executes argv and writes input to stdin.
func runCommandWithInput(ctx context.Context, argv []string, input string) error {
	if len(argv) == 0 {
		return fmt.Errorf("command argv cannot be empty")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open stdin for %s: %w", argv[0], err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return fmt.Errorf("start command %s: %w", argv[0], err)
	}

	if input != "" {
		if _, err := stdin.Write([]byte(input)); err != nil {
			_ = stdin.Close()
			_ = cmd.Wait()
			return fmt.Errorf("write stdin for %s: %w", argv[0], err)
		}
	}
	_ = stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait for %s: %w", argv[0], err)
	}
	return nil
}
