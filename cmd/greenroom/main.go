// Command greenroom runs the interview CLI: `greenroom start` owns a
// session, every other command talks to it.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/greenroom-dev/greenroom/internal/app"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run isolates the exit code path so tests can drive the process the way a
// shell would. SIGINT and SIGTERM cancel the session context, which aborts
// an owned interview cleanly.
func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.Execute(ctx, args, os.Stdout, os.Stderr)
}
