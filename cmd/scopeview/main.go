package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/matzehuels/scopeview/internal/cli"
	"github.com/matzehuels/scopeview/pkg/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c := cli.New(os.Stderr, cli.LogInfo)
	err := c.RootCommand().ExecuteContext(ctx)
	if ferr := c.FlushMetrics(); ferr != nil {
		c.Logger.Warn("write metrics", "err", ferr)
	}
	if err == nil {
		return
	}
	if stderrors.Is(err, context.Canceled) {
		os.Exit(130) // Standard shell convention for SIGINT
	}
	fmt.Fprintln(os.Stderr, "error:", errors.UserMessage(err))
	if code := errors.GetCode(err); code != "" {
		c.Logger.Debug("failed", "code", code, "err", err)
	}
	os.Exit(errors.ExitCode(err))
}
