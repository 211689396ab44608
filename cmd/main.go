package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"carbonlint/apperr"
	"carbonlint/logger"
	"carbonlint/version"

	"github.com/charmbracelet/fang"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go handleSignalEvent(cancel, sigChan)

	err := fang.Execute(ctx, newRootCmd(), fang.WithVersion(version.Version))
	os.Exit(exitCode(err))
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil, errors.Is(err, apperr.ErrCancelled):
		return 0
	case errors.Is(err, apperr.ErrBudgetExceeded):
		logger.Debugf("CI gate failed: %v", err)
	case !apperr.IsUser(err):
		logger.Debugf("Command failed: %+v", err)
	}
	return 1
}

func handleSignalEvent(cancelFunc context.CancelFunc, sigChan <-chan os.Signal) {
	if _, ok := <-sigChan; !ok {
		return
	}
	logger.Info("Interrupt signal received. Shutting down...")
	cancelFunc()
}
