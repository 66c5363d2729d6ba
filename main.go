// =============================================================================
// Payment Statement Merger - Main Entry Point
// =============================================================================
//
// This is the main entry point for the exmerge CLI application. It sets up
// signal handling and delegates command execution to the cmd package.
//
// USAGE:
//   exmerge merge [files...]  - Merge payment tables into a statement
//   exmerge version           - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Core logic (readers, paginator, statement writer)
//   - pkg/       : Shared file utilities
//
// =============================================================================

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ginjaninja78/exmerge/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := cmd.Execute(ctx)
	stop()

	if err != nil {
		// Cobra has already printed the error.
		os.Exit(1)
	}
}
