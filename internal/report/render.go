// Package report renders the debrief view and exports it to the clipboard.
package report

import (
	"fmt"
	"strings"

	"github.com/greenroom-dev/greenroom/internal/ipc"
)

// Render formats a completed session as the debrief text block printed to
// the terminal and exported with --copy.
func Render(view ipc.SessionView) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Interview debrief: %s (%s)\n", orDash(view.Role), orDash(view.Mode))
	fmt.Fprintf(&b, "Turns completed: %d\n", len(view.Turns))

	for i, turn := range view.Turns {
		b.WriteString("\n")
		fmt.Fprintf(&b, "Q%d: %s\n", i+1, turn.Prompt)
		fmt.Fprintf(&b, "A:  %s\n", orDash(turn.Answer))
		fmt.Fprintf(&b, "Score: %s\n", formatScore(turn.Score))
		fmt.Fprintf(&b, "Feedback: %s\n", orDash(turn.Feedback))
	}

	return b.String()
}

func formatScore(score float64) string {
	return strings.TrimSuffix(fmt.Sprintf("%.1f", score), ".0") + "/10"
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
