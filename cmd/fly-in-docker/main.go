package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/flyingbitac/fly-in-docker/internal/cli"
	"github.com/flyingbitac/fly-in-docker/internal/runner"
)

const (
	exitFailure      = 1
	exitAuthRequired = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		log.Error(err.Error())
		var authErr *runner.AuthRequiredError
		if errors.As(err, &authErr) {
			os.Exit(exitAuthRequired)
		}
		os.Exit(exitFailure)
	}
}
