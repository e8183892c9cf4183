// Command affguard scores affiliate activity exports for anomalies, one
// isolation forest per country.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hed1ad/affguard/pkg/dataset"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// Exit codes.
const (
	exitFailure = 1
	exitInput   = 2
	exitOutput  = 3
)

func main() {
	logger := newLogger(os.Getenv("AFFGUARD_DEBUG") == "true", os.Getenv("AFFGUARD_LOG_FORMAT"))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		slog.Error("affguard failed", "error", err)
		os.Exit(exitCode(err))
	}
}

func newLogger(debug bool, format string) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "text") {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

func exitCode(err error) int {
	var inErr *dataset.InputError
	var outErr *dataset.OutputError
	switch {
	case errors.As(err, &inErr):
		return exitInput
	case errors.As(err, &outErr):
		return exitOutput
	}
	return exitFailure
}
