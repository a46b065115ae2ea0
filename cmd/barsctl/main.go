package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/odyssey-erp/stackchart/cmd/barsctl/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
