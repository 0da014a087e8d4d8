package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/specialistvlad/shipgrid/internal/app"
	"github.com/specialistvlad/shipgrid/internal/cli"
	"github.com/specialistvlad/shipgrid/internal/hcl"
)

// main is the entrypoint for the shipgrid application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// The real main function handles errors and exit codes.
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitFailed)
	}
}

// run encapsulates the main application logic for easier testing and error
// handling. A non-Done outcome is reported through an ExitError so calling
// automation can distinguish a partial release from a total failure.
func run(outW io.Writer, args []string) (err error) {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// Startup wiring may panic on programmer errors; recover here to
	// provide a clean exit message to the user.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("application startup panicked: %v", r)
		}
	}()

	// A superseding dispatch or operator interrupt cancels in-flight build
	// tasks cooperatively at their next step boundary.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shipgridApp := app.NewApp(outW, appConfig, hcl.NewLoader())
	outcome, runErr := shipgridApp.Run(ctx)

	if code := cli.CodeForOutcome(outcome); code != cli.ExitDone {
		msg := fmt.Sprintf("run finished %s", outcome)
		if runErr != nil {
			msg = fmt.Sprintf("%s: %v", msg, runErr)
		}
		return &cli.ExitError{Code: code, Message: msg}
	}
	return runErr
}
